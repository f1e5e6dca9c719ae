// SPDX-License-Identifier: EPL-2.0

package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumFor(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not a sum", name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == key && kv.Value.AsString() == value {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_Frames(t *testing.T) {
	t.Parallel()
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFramesMixed(ctx, "dev", 960)
	m.RecordFramesMixed(ctx, "dev", 480)
	m.RecordFramesMixed(ctx, "dev", 0)
	m.RecordUnderrun(ctx, "dev", 64)

	rm := collect(t, reader)
	if got := sumFor(t, rm, "psyaudio.mixer.frames", "device", "dev"); got != 1440 {
		t.Errorf("frames = %d, want 1440", got)
	}
	if got := sumFor(t, rm, "psyaudio.device.underrun_frames", "device", "dev"); got != 64 {
		t.Errorf("underrun frames = %d, want 64", got)
	}
}

func TestMetrics_ScheduleAndRemove(t *testing.T) {
	t.Parallel()
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSchedule(ctx, "dev", 0.1, false)
	m.RecordSchedule(ctx, "dev", 0.001, true)
	m.RecordRemoved(ctx, "dev", "")
	m.RecordRemoved(ctx, "dev", "no channel map")

	rm := collect(t, reader)
	if got := sumFor(t, rm, "psyaudio.mixer.active_stimuli", "device", "dev"); got != 0 {
		t.Errorf("active stimuli = %d, want 0", got)
	}
	if got := sumFor(t, rm, "psyaudio.mixer.late_schedules", "device", "dev"); got != 1 {
		t.Errorf("late schedules = %d, want 1", got)
	}
	if got := sumFor(t, rm, "psyaudio.mixer.dropped_stimuli", "reason", "no channel map"); got != 1 {
		t.Errorf("dropped stimuli = %d, want 1", got)
	}

	met := findMetric(rm, "psyaudio.mixer.schedule_lead")
	if met == nil {
		t.Fatal("schedule lead not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) == 0 {
		t.Fatal("schedule lead has no data points")
	}
	if got := hist.DataPoints[0].Count; got != 2 {
		t.Errorf("schedule lead count = %d, want 2", got)
	}
}

func TestMetrics_TriggerWrites(t *testing.T) {
	t.Parallel()
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTriggerWrite(ctx, "ok")
	m.RecordTriggerWrite(ctx, "ok")
	m.RecordTriggerWrite(ctx, "cancelled")

	rm := collect(t, reader)
	if got := sumFor(t, rm, "psyaudio.trigger.writes", "status", "ok"); got != 2 {
		t.Errorf("ok writes = %d, want 2", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics
	ctx := context.Background()

	m.RecordFramesMixed(ctx, "dev", 1)
	m.RecordUnderrun(ctx, "dev", 1)
	m.RecordSchedule(ctx, "dev", 0, true)
	m.RecordRemoved(ctx, "dev", "x")
	m.RecordTriggerWrite(ctx, "ok")
}

func TestInitProvider(t *testing.T) {
	ctx := context.Background()
	shutdown, err := InitProvider(ctx, ProviderConfig{ServiceVersion: "test"})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
