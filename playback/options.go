// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"log/slog"
	"time"

	"github.com/ik5/psyaudio/audio"
	"github.com/ik5/psyaudio/loop"
	"github.com/ik5/psyaudio/observe"
	"github.com/ik5/psyaudio/timer"
	"github.com/ik5/psyaudio/timing"
)

const (
	DefaultSampleRate      = audio.SampleRate48000
	DefaultOutputChannels  = 2
	DefaultProcessInterval = time.Millisecond
)

// DefaultBufferDuration is the amount of audio kept in the out queue.
var DefaultBufferDuration = timing.NewDurationUs(20_000)

// Option configures a Device.
type Option func(*Device)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Device) { d.logger = logger }
}

// WithClock sets the clock time points are measured against. Stimuli, timers
// and triggers used with the device must share it.
func WithClock(clock *timing.Clock) Option {
	return func(d *Device) { d.clock = clock }
}

// WithEventLoop sets the loop device and stimulus notifications run on.
func WithEventLoop(l *loop.Loop) Option {
	return func(d *Device) { d.events = l }
}

// WithTimers delivers stimulus notifications at their wall-clock instant
// through th instead of as soon as they are known.
func WithTimers(th *timer.Thread) Option {
	return func(d *Device) { d.timers = th }
}

func WithMetrics(m *observe.Metrics) Option {
	return func(d *Device) { d.metrics = m }
}

func WithSampleRate(sr audio.SampleRate) Option {
	return func(d *Device) { d.sampleRate = sr }
}

func WithOutputChannels(n int) Option {
	return func(d *Device) { d.numOut = n }
}

func WithInputChannels(n int) Option {
	return func(d *Device) { d.numIn = n }
}

func WithBufferDuration(dur timing.Duration) Option {
	return func(d *Device) { d.bufferDuration = dur }
}

func WithName(name string) Option {
	return func(d *Device) { d.name = name }
}

// WithProcessInterval sets how often the mixer refills the out queue. Zero
// disables the mixer goroutine; the owner then drives the device with
// Process.
func WithProcessInterval(interval time.Duration) Option {
	return func(d *Device) { d.interval = interval }
}

// WithInputTap receives captured input, in whole frames, on the mixer
// goroutine.
func WithInputTap(fn func(samples []float32)) Option {
	return func(d *Device) { d.inputTap = fn }
}
