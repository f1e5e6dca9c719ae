// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/psyaudio/audio"
	"github.com/ik5/psyaudio/loop"
	"github.com/ik5/psyaudio/observe"
	"github.com/ik5/psyaudio/timer"
	"github.com/ik5/psyaudio/timing"
)

var second = timing.NewDurationUs(1_000_000)

// Device is an audio endpoint. It owns one Mixer while open and feeds the
// hardware callback of its Backend from it.
type Device struct {
	backend  Backend
	id       uuid.UUID
	logger   *slog.Logger
	clock    *timing.Clock
	events   *loop.Loop
	timers   *timer.Thread
	metrics  *observe.Metrics
	interval time.Duration
	inputTap func([]float32)

	// mu guards the settings below.
	mu             sync.Mutex
	name           string
	sampleRate     audio.SampleRate
	numOut         int
	numIn          int
	bufferDuration timing.Duration

	// life serialises Open, Close, Start and Stop.
	life    sync.Mutex
	open    atomic.Bool
	started bool
	stop    chan struct{}
	done    chan struct{}

	// Shared with the hardware callback.
	mixer      atomic.Pointer[Mixer]
	frames     atomic.Int64
	stamp      frameClock
	underrun   atomic.Int64
	awaitFirst atomic.Bool
	firstOut   atomic.Int64
	firstReady atomic.Bool

	handlersMu sync.Mutex
	onStarted  []func(timing.TimePoint)
}

// NewDevice returns a closed device driven by backend.
func NewDevice(backend Backend, opts ...Option) *Device {
	d := &Device{
		backend:        backend,
		id:             uuid.New(),
		logger:         slog.Default(),
		sampleRate:     DefaultSampleRate,
		numOut:         DefaultOutputChannels,
		bufferDuration: DefaultBufferDuration,
		interval:       DefaultProcessInterval,
	}
	for _, o := range opts {
		o(d)
	}
	if d.clock == nil {
		d.clock = timing.NewClock()
	}
	if d.events == nil {
		d.events = loop.New()
	}
	if d.name == "" && backend != nil {
		d.name = backend.DefaultName()
	}
	d.logger = d.logger.With("device uuid", d.id.String())
	return d
}

func (d *Device) ID() uuid.UUID             { return d.id }
func (d *Device) Logger() *slog.Logger      { return d.logger }
func (d *Device) Clock() *timing.Clock      { return d.clock }
func (d *Device) Metrics() *observe.Metrics { return d.metrics }

// Events returns the loop notifications are delivered on. Somebody has to
// run it.
func (d *Device) Events() *loop.Loop { return d.events }

func (d *Device) IsOpen() bool { return d.open.Load() }

func (d *Device) IsStarted() bool {
	d.life.Lock()
	defer d.life.Unlock()
	return d.started
}

func (d *Device) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

func (d *Device) SampleRate() audio.SampleRate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sampleRate
}

func (d *Device) NumOutputChannels() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numOut
}

func (d *Device) NumInputChannels() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numIn
}

func (d *Device) BufferDuration() timing.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bufferDuration
}

// set runs fn under the settings lock unless the device is open.
func (d *Device) set(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open.Load() {
		return ErrDeviceOpen
	}
	return fn()
}

func (d *Device) SetName(name string) error {
	return d.set(func() error {
		d.name = name
		return nil
	})
}

func (d *Device) SetSampleRate(sr audio.SampleRate) error {
	return d.set(func() error {
		if !sr.Valid() {
			return fmt.Errorf("%w: %d Hz", ErrInvalidSampleRate, int(sr))
		}
		d.sampleRate = sr
		return nil
	})
}

func (d *Device) SetNumOutputChannels(n int) error {
	return d.set(func() error {
		if n <= 0 || n >= math.MaxInt32 {
			return fmt.Errorf("%w: %d output channels", ErrInvalidChannels, n)
		}
		d.numOut = n
		return nil
	})
}

// SetNumInputChannels sets the capture channel count. Zero disables input.
func (d *Device) SetNumInputChannels(n int) error {
	return d.set(func() error {
		if n < 0 || n >= math.MaxInt32 {
			return fmt.Errorf("%w: %d input channels", ErrInvalidChannels, n)
		}
		d.numIn = n
		return nil
	})
}

func (d *Device) SetBufferDuration(dur timing.Duration) error {
	return d.set(func() error {
		if dur.IsNegative() || dur.IsZero() {
			return fmt.Errorf("%w: %v", ErrInvalidBufferDuration, dur)
		}
		d.bufferDuration = dur
		return nil
	})
}

// validate checks settings that options may have put in place without going
// through the setters. Called with mu held.
func (d *Device) validate() error {
	if !d.sampleRate.Valid() {
		return fmt.Errorf("%w: %d Hz", ErrInvalidSampleRate, int(d.sampleRate))
	}
	if d.numOut <= 0 || d.numOut >= math.MaxInt32 {
		return fmt.Errorf("%w: %d output channels", ErrInvalidChannels, d.numOut)
	}
	if d.numIn < 0 || d.numIn >= math.MaxInt32 {
		return fmt.Errorf("%w: %d input channels", ErrInvalidChannels, d.numIn)
	}
	if d.bufferDuration.IsNegative() || d.bufferDuration.IsZero() {
		return fmt.Errorf("%w: %v", ErrInvalidBufferDuration, d.bufferDuration)
	}
	return nil
}

// Open validates the settings, opens the backend, creates the mixer and
// starts the device. Opening an open device does nothing.
func (d *Device) Open(ctx context.Context) error {
	d.life.Lock()
	defer d.life.Unlock()

	if d.open.Load() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	if err := d.validate(); err != nil {
		d.mu.Unlock()
		return err
	}
	frames, err := framesIn(d.bufferDuration, d.sampleRate.Hz())
	if err != nil {
		d.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidBufferDuration, err)
	}
	mixer, err := newMixer(d, mixerConfig{
		name:           d.name,
		sampleRate:     d.sampleRate.Hz(),
		numOut:         d.numOut,
		numIn:          d.numIn,
		bufferFrames:   max(frames, 1),
		bufferDuration: d.bufferDuration,
	})
	if err != nil {
		d.mu.Unlock()
		return err
	}
	name, sr, out, in := d.name, d.sampleRate, d.numOut, d.numIn
	d.open.Store(true)
	d.mu.Unlock()

	d.frames.Store(0)
	d.underrun.Store(0)
	d.stamp.reset()
	d.mixer.Store(mixer)

	if err := d.backend.Open(d); err != nil {
		d.mixer.Store(nil)
		d.open.Store(false)
		return fmt.Errorf("open %s: %w", name, err)
	}

	d.logger.Info("audio device opened",
		"name", name,
		"sample rate", sr,
		"output channels", out,
		"input channels", in,
		"queue capacity", mixer.out.Capacity(),
	)

	return d.startLocked()
}

// Start enables the hardware callback and the mixer goroutine.
func (d *Device) Start() error {
	d.life.Lock()
	defer d.life.Unlock()
	return d.startLocked()
}

func (d *Device) startLocked() error {
	if !d.open.Load() {
		return ErrDeviceClosed
	}
	if d.started {
		return nil
	}

	m := d.mixer.Load()
	if d.interval > 0 {
		d.stop = make(chan struct{})
		d.done = make(chan struct{})
		go d.process(m, d.interval, d.stop, d.done)
	}

	d.awaitFirst.Store(true)
	if err := d.backend.Start(); err != nil {
		d.stopProcess()
		d.awaitFirst.Store(false)
		return fmt.Errorf("start %s: %w", d.Name(), err)
	}
	d.started = true
	return nil
}

// Stop disables the hardware callback and the mixer goroutine. The mixer
// and its queued audio are kept.
func (d *Device) Stop() error {
	d.life.Lock()
	defer d.life.Unlock()
	return d.stopLocked()
}

func (d *Device) stopLocked() error {
	if !d.started {
		return nil
	}
	err := d.backend.Stop()
	d.stopProcess()
	d.started = false
	if err != nil {
		return fmt.Errorf("stop %s: %w", d.Name(), err)
	}
	return nil
}

func (d *Device) stopProcess() {
	if d.stop == nil {
		return
	}
	close(d.stop)
	<-d.done
	d.stop, d.done = nil, nil
}

// Close stops the device, closes the backend and drops the mixer. Stimuli
// still scheduled are finished.
func (d *Device) Close() error {
	d.life.Lock()
	defer d.life.Unlock()

	if !d.open.Load() {
		return nil
	}
	stopErr := d.stopLocked()
	closeErr := d.backend.Close()

	if m := d.mixer.Swap(nil); m != nil {
		m.Reset()
	}
	d.stamp.reset()
	d.open.Store(false)
	d.logger.Info("audio device closed")

	if stopErr != nil {
		return stopErr
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", d.Name(), closeErr)
	}
	return nil
}

// Mixer returns the mixer of an open device, or nil.
func (d *Device) Mixer() *Mixer { return d.mixer.Load() }

// FrameDuration returns the duration of one frame, rounded to a microsecond.
func (d *Device) FrameDuration() (timing.Duration, error) {
	m := d.mixer.Load()
	if m == nil {
		return timing.Duration{}, ErrDeviceClosed
	}
	us, err := second.DivideRounded(timing.NewDurationUs(int64(m.sampleRate)))
	if err != nil {
		return timing.Duration{}, err
	}
	return timing.NewDurationUs(us), nil
}

// LastKnownFrame returns the stamp of the latest hardware callback. ok is
// false until the callback has run.
func (d *Device) LastKnownFrame() (FrameStamp, bool) {
	if !d.open.Load() {
		return FrameStamp{}, false
	}
	return d.stamp.load()
}

// ScheduleStimulus hands stim to the mixer.
func (d *Device) ScheduleStimulus(stim *Stimulus) error {
	m := d.mixer.Load()
	if m == nil {
		return ErrDeviceClosed
	}
	return m.ScheduleStimulus(stim)
}

// OnStarted registers fn to receive the output time of the first callback
// after each Start.
func (d *Device) OnStarted(fn func(timing.TimePoint)) {
	d.handlersMu.Lock()
	d.onStarted = append(d.onStarted, fn)
	d.handlersMu.Unlock()
}

// Render is the hardware callback. It fills out with interleaved output
// samples and takes in as captured input. tpIn and tpOut are the moments the
// first frame of each buffer passed the ADC and will reach the DAC.
//
// Render does not block, allocate or log.
func (d *Device) Render(out, in []float32, tpIn, tpOut timing.TimePoint) {
	m := d.mixer.Load()
	if m == nil {
		clear(out)
		return
	}

	frame := d.frames.Load()
	d.stamp.store(frame, tpIn, tpOut)
	if d.awaitFirst.CompareAndSwap(true, false) {
		d.firstOut.Store(tpOut.Ticks())
		d.firstReady.Store(true)
	}

	clear(out)
	n := m.ReadFrames(out)
	if n < len(out) {
		d.underrun.Add(int64((len(out) - n) / m.numOut))
	}
	if len(in) > 0 && m.in != nil {
		m.pushInput(in)
	}
	d.frames.Add(int64(len(out) / m.numOut))
}

// Process refills the out queue, drains the in queue and delivers pending
// device notifications. The mixer goroutine calls it; with a zero process
// interval the owner does.
func (d *Device) Process() {
	m := d.mixer.Load()
	if m == nil {
		return
	}
	m.ProcessAudio()
	d.flush(m)
}

func (d *Device) process(m *Mixer, interval time.Duration, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.ProcessAudio()
		d.flush(m)
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// flush turns what the callback recorded into notifications and metrics.
func (d *Device) flush(m *Mixer) {
	if d.firstReady.CompareAndSwap(true, false) {
		tp := timing.NewTimePoint(d.firstOut.Load())
		d.logger.Debug("audio device started", "time", tp)

		d.handlersMu.Lock()
		handlers := slices.Clone(d.onStarted)
		d.handlersMu.Unlock()
		d.deliver(handlers, tp, false)
	}
	if n := d.underrun.Swap(0); n > 0 {
		d.metrics.RecordUnderrun(context.Background(), m.name, n)
	}
}

// deliver runs handlers with tp on the event loop. With timers configured and
// atTime set they run when the clock reaches tp.
func (d *Device) deliver(handlers []func(timing.TimePoint), tp timing.TimePoint, atTime bool) {
	if len(handlers) == 0 {
		return
	}
	run := func(tp timing.TimePoint) {
		for _, fn := range handlers {
			fn(tp)
		}
	}

	if atTime && d.timers != nil {
		t := d.timers.NewTimer(d.events)
		t.OnFire(run)
		if err := t.SetFireTime(tp); err == nil {
			return
		}
	}
	d.events.Invoke(func() { run(tp) })
}

// framesIn converts dur to a frame count at sr, rounding to the nearest
// frame.
func framesIn(dur timing.Duration, sr int) (int64, error) {
	scaled, err := dur.MulScalar(int64(sr))
	if err != nil {
		return 0, err
	}
	return scaled.DivideRounded(second)
}

// durationOf converts a frame count at sr to a duration, rounding to the
// nearest microsecond.
func durationOf(frames int64, sr int) (timing.Duration, error) {
	scaled, err := second.MulScalar(frames)
	if err != nil {
		return timing.Duration{}, err
	}
	us, err := scaled.DivideRounded(timing.NewDurationUs(int64(sr)))
	if err != nil {
		return timing.Duration{}, err
	}
	return timing.NewDurationUs(us), nil
}
