// SPDX-License-Identifier: EPL-2.0

package psyaudio

import (
	"log/slog"
	"sync"

	"github.com/ik5/psyaudio/loop"
	"github.com/ik5/psyaudio/observe"
	"github.com/ik5/psyaudio/playback"
	"github.com/ik5/psyaudio/timer"
	"github.com/ik5/psyaudio/timing"
)

// Runtime owns the process wide timing services. The clock lives as long
// as the Runtime; the timer thread and the event loop exist between the
// first Retain and the matching last Release.
type Runtime struct {
	logger  *slog.Logger
	clock   *timing.Clock
	metrics *observe.Metrics

	mu     sync.Mutex
	refs   int
	timers *timer.Thread
	events *loop.Loop
}

type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

func WithClock(clock *timing.Clock) Option {
	return func(r *Runtime) { r.clock = clock }
}

// WithMetrics sets the metrics handed to devices created by NewDevice.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	if r.clock == nil {
		r.clock = timing.NewClock()
	}
	return r
}

func (r *Runtime) Clock() *timing.Clock { return r.clock }

// Retain takes a reference. The first one starts the timer thread and
// creates the event loop.
func (r *Runtime) Retain() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refs == 0 {
		r.timers = timer.NewThread(r.clock, timer.WithLogger(r.logger))
		r.events = loop.New()
		r.logger.Debug("runtime started")
	}
	r.refs++
	return nil
}

// Release drops a reference. The last one stops the timer thread and quits
// the event loop; armed timers are dropped.
func (r *Runtime) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refs == 0 {
		return ErrNotRetained
	}
	r.refs--
	if r.refs > 0 {
		return nil
	}

	r.timers.Stop()
	r.events.Quit()
	r.timers = nil
	r.events = nil
	r.logger.Debug("runtime stopped")
	return nil
}

// Refs returns the number of outstanding references.
func (r *Runtime) Refs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs
}

// Timers returns the timer thread, or nil while not retained.
func (r *Runtime) Timers() *timer.Thread {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers
}

// Events returns the event loop, or nil while not retained. The caller runs
// it.
func (r *Runtime) Events() *loop.Loop {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events
}

// NewTimer returns a timer firing on the event loop.
func (r *Runtime) NewTimer() (*timer.Timer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refs == 0 {
		return nil, ErrNotRetained
	}
	return r.timers.NewTimer(r.events), nil
}

// DeviceOptions returns the options binding a device to r. They must be
// taken while r is retained.
func (r *Runtime) DeviceOptions() []playback.Option {
	r.mu.Lock()
	defer r.mu.Unlock()

	opts := []playback.Option{
		playback.WithLogger(r.logger),
		playback.WithClock(r.clock),
		playback.WithMetrics(r.metrics),
	}
	if r.refs > 0 {
		opts = append(opts, playback.WithEventLoop(r.events), playback.WithTimers(r.timers))
	}
	return opts
}

// NewDevice creates a device sharing the services of r. opts are applied
// after the runtime's own.
func (r *Runtime) NewDevice(backend playback.Backend, opts ...playback.Option) *playback.Device {
	return playback.NewDevice(backend, append(r.DeviceOptions(), opts...)...)
}
