// SPDX-License-Identifier: EPL-2.0

// Package observe holds the OpenTelemetry instruments of the playback
// engine and the Prometheus bridge that exposes them.
//
// Devices take a *Metrics through playback.WithMetrics. A nil *Metrics is
// valid and records nothing. Tests should build their own instance with
// NewMetrics and a manual reader instead of touching DefaultMetrics.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ik5/psyaudio"

// Metrics holds the metric instruments of the engine.
type Metrics struct {
	// FramesMixed counts frames pushed to a device out queue.
	FramesMixed metric.Int64Counter

	// UnderrunFrames counts frames the hardware callback had to fill with
	// silence.
	UnderrunFrames metric.Int64Counter

	// LateSchedules counts stimuli scheduled with less lead time than the
	// device buffer.
	LateSchedules metric.Int64Counter

	// DroppedStimuli counts stimuli removed before they were complete. Use
	// with attribute.String("reason", ...).
	DroppedStimuli metric.Int64Counter

	// ActiveStimuli tracks the size of the mixer active sets.
	ActiveStimuli metric.Int64UpDownCounter

	// ScheduleLead tracks the time between scheduling a stimulus and its
	// onset at the DAC.
	ScheduleLead metric.Float64Histogram

	// TriggerWrites counts parallel port pulses. Use with
	// attribute.String("status", ...).
	TriggerWrites metric.Int64Counter
}

var leadBuckets = []float64{
	0, 0.005, 0.01, 0.02, 0.05, 0.1, 0.25, 0.5, 1, 5,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesMixed, err = m.Int64Counter("psyaudio.mixer.frames",
		metric.WithDescription("Frames pushed to the device out queue."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.UnderrunFrames, err = m.Int64Counter("psyaudio.device.underrun_frames",
		metric.WithDescription("Frames rendered as silence because the out queue was empty."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.LateSchedules, err = m.Int64Counter("psyaudio.mixer.late_schedules",
		metric.WithDescription("Stimuli scheduled inside the device buffer."),
	); err != nil {
		return nil, err
	}
	if met.DroppedStimuli, err = m.Int64Counter("psyaudio.mixer.dropped_stimuli",
		metric.WithDescription("Stimuli dropped before completion by reason."),
	); err != nil {
		return nil, err
	}
	if met.ActiveStimuli, err = m.Int64UpDownCounter("psyaudio.mixer.active_stimuli",
		metric.WithDescription("Stimuli currently in a mixer active set."),
	); err != nil {
		return nil, err
	}
	if met.ScheduleLead, err = m.Float64Histogram("psyaudio.mixer.schedule_lead",
		metric.WithDescription("Time from scheduling a stimulus to its onset."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(leadBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TriggerWrites, err = m.Int64Counter("psyaudio.trigger.writes",
		metric.WithDescription("Parallel port pulses by status."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a package level instance built on the global
// meter provider. It panics if the instruments cannot be created.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func deviceAttr(device string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("device", device))
}

// RecordFramesMixed adds n mixed frames for device.
func (m *Metrics) RecordFramesMixed(ctx context.Context, device string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.FramesMixed.Add(ctx, n, deviceAttr(device))
}

// RecordUnderrun adds n silent frames for device.
func (m *Metrics) RecordUnderrun(ctx context.Context, device string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.UnderrunFrames.Add(ctx, n, deviceAttr(device))
}

// RecordSchedule records a scheduled stimulus and its lead time in seconds.
func (m *Metrics) RecordSchedule(ctx context.Context, device string, lead float64, late bool) {
	if m == nil {
		return
	}
	m.ScheduleLead.Record(ctx, max(lead, 0), deviceAttr(device))
	m.ActiveStimuli.Add(ctx, 1, deviceAttr(device))
	if late {
		m.LateSchedules.Add(ctx, 1, deviceAttr(device))
	}
}

// RecordRemoved records that a stimulus left the active set. A non-empty
// reason marks it as dropped.
func (m *Metrics) RecordRemoved(ctx context.Context, device, reason string) {
	if m == nil {
		return
	}
	m.ActiveStimuli.Add(ctx, -1, deviceAttr(device))
	if reason != "" {
		m.DroppedStimuli.Add(ctx, 1, metric.WithAttributes(
			attribute.String("device", device),
			attribute.String("reason", reason),
		))
	}
}

// RecordTriggerWrite records a parallel port pulse.
func (m *Metrics) RecordTriggerWrite(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.TriggerWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
