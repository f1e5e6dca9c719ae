// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ik5/psyaudio/audio"
	"github.com/ik5/psyaudio/timing"
)

// State is the position of a Stimulus in its life cycle.
type State int32

const (
	StateUnbound State = iota
	StateBound
	StateScheduled
	StatePlaying
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateScheduled:
		return "scheduled"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// StimulusSource produces the samples of a stimulus.
type StimulusSource interface {
	// Read writes numFrames interleaved frames of NumChannels samples into
	// dst and returns the number of frames written. io.EOF ends the
	// stimulus after the frames returned with it.
	Read(dst []float32, numFrames int) (int, error)
	// NumChannels returns the channel count, or 0 when it is not known yet.
	NumChannels() int
}

// FlexibleSource is implemented by sources that can produce any number of
// channels. When FlexibleChannels reports true, Play sets the channel count
// to that of the device.
type FlexibleSource interface {
	FlexibleChannels() bool
	SetNumChannels(n int)
}

// RateAdopter is implemented by sources that need to know the device sample
// rate. Play calls SetSampleRate before it asks the source for its length.
type RateAdopter interface {
	SetSampleRate(hz int) error
}

// lengther is implemented by sources that know their length in frames.
type lengther interface {
	NumFrames() int64
}

// Stimulus is a sound scheduled on a Device.
//
// Status accessors may be called from any goroutine. Setters must not be
// called once the stimulus is scheduled.
type Stimulus struct {
	src StimulusSource

	mu          sync.Mutex
	device      *Device
	channelMap  *audio.ChannelMap
	duration    timing.Duration
	hasDuration bool
	requested   timing.TimePoint
	onStarted   []func(timing.TimePoint)
	onFinished  []func(timing.TimePoint)

	state       atomic.Int32
	numChannels atomic.Int32
	numFrames   atomic.Int64
	startFrame  atomic.Int64
	presented   atomic.Int64
	startTime   atomic.Int64
	endTime     atomic.Int64
	mixMap      atomic.Pointer[audio.ChannelMap]
}

// NewStimulus returns an unbound stimulus reading from src.
func NewStimulus(src StimulusSource) *Stimulus {
	if src == nil {
		panic("playback: nil stimulus source")
	}
	s := &Stimulus{src: src}
	s.numFrames.Store(-1)
	s.startFrame.Store(-1)
	s.numChannels.Store(int32(max(src.NumChannels(), 0)))
	return s
}

func (s *Stimulus) Source() StimulusSource { return s.src }
func (s *Stimulus) State() State           { return State(s.state.Load()) }

// IsStarted reports whether the stimulus has been scheduled.
func (s *Stimulus) IsStarted() bool  { return s.State() >= StateScheduled }
func (s *Stimulus) IsFinished() bool { return s.State() == StateFinished }

// NumChannels is 0 until it is known.
func (s *Stimulus) NumChannels() int { return int(s.numChannels.Load()) }

// NumFrames is the length of the stimulus, or -1 when it plays until its
// source runs dry.
func (s *Stimulus) NumFrames() int64          { return s.numFrames.Load() }
func (s *Stimulus) NumFramesPresented() int64 { return s.presented.Load() }

// StartFrame is the device frame the stimulus starts at, or -1.
func (s *Stimulus) StartFrame() int64 { return s.startFrame.Load() }

// StartTime returns the predicted onset. ok is false before scheduling.
func (s *Stimulus) StartTime() (tp timing.TimePoint, ok bool) {
	if !s.IsStarted() {
		return timing.TimePoint{}, false
	}
	return timing.NewTimePoint(s.startTime.Load()), true
}

// EndTime returns the computed end. ok is false until the stimulus finished.
func (s *Stimulus) EndTime() (tp timing.TimePoint, ok bool) {
	if !s.IsFinished() {
		return timing.TimePoint{}, false
	}
	return timing.NewTimePoint(s.endTime.Load()), true
}

func (s *Stimulus) Device() *Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// SetDevice binds the stimulus to d.
func (s *Stimulus) SetDevice(d *Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st >= StateScheduled {
		return fmt.Errorf("%w: stimulus is %s", ErrAlreadyScheduled, st)
	}
	s.device = d
	if d == nil {
		s.state.Store(int32(StateUnbound))
	} else {
		s.state.Store(int32(StateBound))
	}
	return nil
}

// SetChannelMap sets the routing of the stimulus channels onto the device
// channels. The map is copied.
func (s *Stimulus) SetChannelMap(m *audio.ChannelMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st >= StateScheduled {
		return fmt.Errorf("%w: stimulus is %s", ErrAlreadyScheduled, st)
	}
	if m == nil {
		s.channelMap = nil
		return nil
	}
	s.channelMap = m.Clone()
	return nil
}

// ChannelMap returns a copy of the channel map, or nil.
func (s *Stimulus) ChannelMap() *audio.ChannelMap {
	if m := s.mixMap.Load(); m != nil {
		return m.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channelMap == nil {
		return nil
	}
	return s.channelMap.Clone()
}

// Duration returns the duration set by SetDuration after rounding to whole
// frames.
func (s *Stimulus) Duration() timing.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// SetDuration sets the length of the stimulus. It is rounded to whole frames
// of the device, which must be open.
func (s *Stimulus) SetDuration(d timing.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st >= StateScheduled {
		return fmt.Errorf("%w: stimulus is %s", ErrAlreadyScheduled, st)
	}
	if d.IsNegative() {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, d)
	}
	if s.device == nil {
		return ErrUnbound
	}
	m := s.device.Mixer()
	if m == nil {
		return ErrDeviceClosed
	}

	frames, err := framesIn(d, m.sampleRate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, err)
	}
	if frames == 0 && !d.IsZero() {
		s.device.logger.Warn("stimulus duration is shorter than half a frame",
			"duration", d,
			"sample rate", m.sampleRate,
		)
	}
	corrected, err := durationOf(frames, m.sampleRate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, err)
	}

	s.duration = corrected
	s.hasDuration = true
	s.numFrames.Store(frames)
	return nil
}

// OnStarted registers fn to receive the predicted onset once the stimulus is
// scheduled.
func (s *Stimulus) OnStarted(fn func(timing.TimePoint)) {
	s.mu.Lock()
	s.onStarted = append(s.onStarted, fn)
	s.mu.Unlock()
}

// OnFinished registers fn to receive the computed end once the stimulus has
// been mixed completely or dropped.
func (s *Stimulus) OnFinished(fn func(timing.TimePoint)) {
	s.mu.Lock()
	s.onFinished = append(s.onFinished, fn)
	s.mu.Unlock()
}

// Play schedules the stimulus to start at start.
func (s *Stimulus) Play(start timing.TimePoint) error {
	d, err := s.prepare(start)
	if err != nil {
		return err
	}
	if err := d.ScheduleStimulus(s); err != nil {
		if errors.Is(err, ErrNoClockReference) {
			d.logger.Log(context.Background(), LevelCritical, "cannot schedule stimulus, the device has no clock reference")
		}
		return err
	}
	return nil
}

// PlayFor plays the stimulus for dur from start.
func (s *Stimulus) PlayFor(start timing.TimePoint, dur timing.Duration) error {
	if err := s.SetDuration(dur); err != nil {
		return err
	}
	return s.Play(start)
}

// PlayUntil plays the stimulus from start to stop.
func (s *Stimulus) PlayUntil(start, stop timing.TimePoint) error {
	dur, err := stop.Sub(start)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, err)
	}
	return s.PlayFor(start, dur)
}

// prepare fixes the channel count, the channel map and the length.
func (s *Stimulus) prepare(start timing.TimePoint) (*Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch st := s.State(); st {
	case StateScheduled, StatePlaying:
		return nil, ErrAlreadyScheduled
	case StateFinished:
		return nil, ErrStimulusFinished
	}
	if s.device == nil {
		return nil, ErrUnbound
	}
	m := s.device.Mixer()
	if m == nil {
		return nil, ErrDeviceClosed
	}

	n := s.src.NumChannels()
	if f, ok := s.src.(FlexibleSource); ok && f.FlexibleChannels() {
		n = m.numOut
		f.SetNumChannels(n)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: stimulus has %d channels", ErrInvalidChannels, n)
	}

	cm := s.channelMap
	if cm == nil {
		var err error
		cm, err = audio.NewChannelMapWithStrategy(m.numOut, n, audio.StrategyDefault)
		if err != nil {
			return nil, err
		}
	} else if cm.NumSinkChannels() != m.numOut || cm.NumSourceChannels() != n {
		return nil, fmt.Errorf("%w: channel map is %d to %d, need %d to %d",
			ErrInvalidChannels, cm.NumSourceChannels(), cm.NumSinkChannels(), n, m.numOut)
	}

	if r, ok := s.src.(RateAdopter); ok {
		if err := r.SetSampleRate(m.sampleRate); err != nil {
			return nil, err
		}
	}
	if !s.hasDuration {
		frames := int64(-1)
		if l, ok := s.src.(lengther); ok {
			frames = l.NumFrames()
		}
		s.numFrames.Store(frames)
		if frames >= 0 {
			if dur, err := durationOf(frames, m.sampleRate); err == nil {
				s.duration = dur
			}
		}
	}

	s.numChannels.Store(int32(n))
	s.mixMap.Store(cm.Clone())
	s.requested = start
	return s.device, nil
}

func (s *Stimulus) requestedStart() timing.TimePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

// schedule moves the stimulus to StateScheduled. It reports false when the
// stimulus was already past StateBound.
func (s *Stimulus) schedule(startFrame int64, start timing.TimePoint) bool {
	for {
		st := s.state.Load()
		if State(st) >= StateScheduled {
			return false
		}
		if s.state.CompareAndSwap(st, int32(StateScheduled)) {
			break
		}
	}
	s.startFrame.Store(startFrame)
	s.startTime.Store(start.Ticks())
	return true
}

func (s *Stimulus) channelMapping() *audio.ChannelMap { return s.mixMap.Load() }

// read pulls numFrames frames from the source. Only the mixer calls it.
func (s *Stimulus) read(dst []float32, numFrames int) (int, error) {
	if numFrames < 0 {
		panic("playback: negative frame count")
	}
	got, err := s.src.Read(dst, numFrames)
	got = min(max(got, 0), numFrames)
	if got > 0 {
		s.presented.Add(int64(got))
		s.state.CompareAndSwap(int32(StateScheduled), int32(StatePlaying))
	}
	return got, err
}

// truncate ends the stimulus at the frames presented so far.
func (s *Stimulus) truncate() {
	s.numFrames.Store(s.presented.Load())
}

func (s *Stimulus) computeEnd(sr int) (timing.TimePoint, error) {
	frames := s.numFrames.Load()
	if frames < 0 {
		frames = s.presented.Load()
	}
	dur, err := durationOf(frames, sr)
	if err != nil {
		return timing.TimePoint{}, err
	}
	return timing.NewTimePoint(s.startTime.Load()).Add(dur)
}

// finish moves the stimulus to StateFinished. It reports true only for the
// call that made the transition.
func (s *Stimulus) finish(end timing.TimePoint) bool {
	for {
		st := s.state.Load()
		if State(st) == StateFinished {
			return false
		}
		s.endTime.Store(end.Ticks())
		if s.state.CompareAndSwap(st, int32(StateFinished)) {
			return true
		}
	}
}

func (s *Stimulus) startedHandlers() []func(timing.TimePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.onStarted)
}

func (s *Stimulus) finishedHandlers() []func(timing.TimePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.onFinished)
}
