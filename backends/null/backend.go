// SPDX-License-Identifier: EPL-2.0

package null

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ik5/psyaudio/playback"
	"github.com/ik5/psyaudio/timing"
)

var (
	ErrNotOpen       = errors.New("null backend is not open")
	ErrNotManual     = errors.New("null backend is clocked by its ticker")
	ErrInvalidPeriod = errors.New("callback period must hold at least one frame")
)

// DefaultPeriodFrames is the callback size when WithPeriodFrames is not
// used.
const DefaultPeriodFrames = 256

// Backend renders into memory.
type Backend struct {
	periodFrames int
	latency      timing.Duration
	manual       bool
	tap          func(out []float32)

	mu      sync.Mutex
	device  *playback.Device
	out     []float32
	in      []float32
	started bool
	stop    chan struct{}
	done    chan struct{}
}

type Option func(*Backend)

// WithPeriodFrames sets the frames rendered per callback.
func WithPeriodFrames(n int) Option { return func(b *Backend) { b.periodFrames = n } }

// WithLatency adds a fixed output latency to the DAC time of every buffer.
func WithLatency(d timing.Duration) Option { return func(b *Backend) { b.latency = d } }

// WithManual disables the ticker. Frames are rendered by Pump only.
func WithManual() Option { return func(b *Backend) { b.manual = true } }

// WithTap calls fn with every rendered buffer. fn runs on the callback
// goroutine and must not keep out.
func WithTap(fn func(out []float32)) Option { return func(b *Backend) { b.tap = fn } }

func New(opts ...Option) *Backend {
	b := &Backend{periodFrames: DefaultPeriodFrames}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) DefaultName() string { return "null" }

func (b *Backend) Open(d *playback.Device) error {
	if b.periodFrames <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPeriod, b.periodFrames)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.device = d
	b.out = make([]float32, b.periodFrames*d.NumOutputChannels())
	b.in = nil
	if n := d.NumInputChannels(); n > 0 {
		b.in = make([]float32, b.periodFrames*n)
	}
	return nil
}

func (b *Backend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return ErrNotOpen
	}
	if b.started {
		return nil
	}
	b.started = true
	if b.manual {
		return nil
	}

	period := time.Duration(b.periodFrames) * time.Second / time.Duration(b.device.SampleRate().Hz())
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.run(period, b.stop, b.done)
	return nil
}

func (b *Backend) Stop() error {
	b.mu.Lock()
	stop, done := b.stop, b.done
	b.stop, b.done = nil, nil
	b.started = false
	b.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

func (b *Backend) Close() error {
	if err := b.Stop(); err != nil {
		return err
	}
	b.mu.Lock()
	b.device = nil
	b.mu.Unlock()
	return nil
}

func (b *Backend) run(period time.Duration, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.mu.Lock()
			b.render(b.periodFrames)
			b.mu.Unlock()
		}
	}
}

// Pump renders frames frames right away in callbacks of at most the period
// size. It only works with WithManual and while started.
func (b *Backend) Pump(frames int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return ErrNotOpen
	}
	if !b.manual {
		return ErrNotManual
	}
	if !b.started {
		return nil
	}
	for frames > 0 {
		n := min(frames, b.periodFrames)
		b.render(n)
		frames -= n
	}
	return nil
}

// render runs one callback of n frames. b.mu is held.
func (b *Backend) render(n int) {
	d := b.device
	out := b.out[:n*d.NumOutputChannels()]
	var in []float32
	if b.in != nil {
		in = b.in[:n*d.NumInputChannels()]
	}

	now := d.Clock().Now()
	tpOut, err := now.Add(b.latency)
	if err != nil {
		tpOut = now
	}
	d.Render(out, in, now, tpOut)
	if b.tap != nil {
		b.tap(out)
	}
}
