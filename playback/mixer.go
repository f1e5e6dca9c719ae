// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ik5/psyaudio/audio"
	"github.com/ik5/psyaudio/observe"
	"github.com/ik5/psyaudio/timing"
)

type mixerConfig struct {
	name           string
	sampleRate     int
	numOut         int
	numIn          int
	bufferFrames   int64
	bufferDuration timing.Duration
}

// Mixer sums the scheduled stimuli of a device into its out queue.
//
// NumOutFrames is the time base of the mixer: the frame a stimulus is
// scheduled at is the value NumOutFrames has when its first sample is pushed.
type Mixer struct {
	device         *Device
	logger         *slog.Logger
	metrics        *observe.Metrics
	name           string
	sampleRate     int
	numOut         int
	numIn          int
	bufferDuration timing.Duration
	inputTap       func([]float32)

	out *audio.Queue
	in  *audio.Queue

	numOutFrames atomic.Int64
	numInFrames  atomic.Int64
	numActive    atomic.Int32

	// mu guards the active set and the mixing buffers. The hardware
	// callback never takes it.
	mu      sync.Mutex
	active  []*Stimulus
	removed []removal
	accum   []float32
	scratch []float32
	inBuf   []float32
}

type removal struct {
	stim   *Stimulus
	reason string
}

func newMixer(d *Device, cfg mixerConfig) (*Mixer, error) {
	out, err := audio.NewQueue(int(cfg.bufferFrames) * cfg.numOut)
	if err != nil {
		return nil, fmt.Errorf("out queue: %w", err)
	}

	m := &Mixer{
		device:         d,
		logger:         d.logger,
		metrics:        d.metrics,
		name:           cfg.name,
		sampleRate:     cfg.sampleRate,
		numOut:         cfg.numOut,
		numIn:          cfg.numIn,
		bufferDuration: cfg.bufferDuration,
		inputTap:       d.inputTap,
		out:            out,
		accum:          make([]float32, out.Capacity()),
	}

	if cfg.numIn > 0 {
		m.in, err = audio.NewQueue(int(cfg.bufferFrames) * cfg.numIn)
		if err != nil {
			return nil, fmt.Errorf("in queue: %w", err)
		}
		m.inBuf = make([]float32, m.in.Capacity())
	}
	return m, nil
}

func (m *Mixer) NumOutFrames() int64    { return m.numOutFrames.Load() }
func (m *Mixer) NumInFrames() int64     { return m.numInFrames.Load() }
func (m *Mixer) ActiveStimuli() int     { return int(m.numActive.Load()) }
func (m *Mixer) SampleRate() int        { return m.sampleRate }
func (m *Mixer) NumOutputChannels() int { return m.numOut }

// Queue returns the out queue.
func (m *Mixer) Queue() *audio.Queue { return m.out }

// ScheduleStimulus computes the start frame of stim from the requested start
// time and the latest device callback, and adds it to the active set.
//
// A start time that lies inside the device buffer is late: the stimulus
// starts with the first frame the mixer has not produced yet.
func (m *Mixer) ScheduleStimulus(stim *Stimulus) error {
	switch stim.State() {
	case StateScheduled, StatePlaying:
		m.logger.Warn("stimulus is already scheduled")
		return ErrAlreadyScheduled
	case StateFinished:
		return ErrStimulusFinished
	}

	fs, ok := m.device.LastKnownFrame()
	if !ok {
		return ErrNoClockReference
	}

	start := stim.requestedStart()
	onset, err := start.Sub(fs.Out)
	if err != nil {
		return fmt.Errorf("onset: %w", err)
	}
	late := onset.Less(m.bufferDuration)
	if late {
		m.logger.Warn("stimulus scheduled too late, it starts as soon as possible",
			"onset", onset,
			"buffer duration", m.bufferDuration,
		)
	}

	offset, err := framesIn(onset, m.sampleRate)
	if err != nil {
		return fmt.Errorf("onset: %w", err)
	}
	startFrame := fs.Frame + offset

	m.mu.Lock()
	defer m.mu.Unlock()

	if next := m.numOutFrames.Load(); startFrame < next {
		startFrame = next
		dur, err := durationOf(startFrame-fs.Frame, m.sampleRate)
		if err != nil {
			return fmt.Errorf("onset: %w", err)
		}
		if start, err = fs.Out.Add(dur); err != nil {
			return fmt.Errorf("onset: %w", err)
		}
	}

	if !stim.schedule(startFrame, start) {
		m.logger.Warn("stimulus is already scheduled")
		return ErrAlreadyScheduled
	}
	m.active = append(m.active, stim)
	m.numActive.Add(1)

	m.metrics.RecordSchedule(context.Background(), m.name, onset.Seconds(), late)
	m.logger.Debug("stimulus scheduled",
		"start frame", startFrame,
		"start", start,
		"frames", stim.NumFrames(),
	)

	m.device.deliver(stim.startedHandlers(), start, true)
	return nil
}

// ProcessAudio fills the free space of the out queue and drains the in
// queue.
func (m *Mixer) ProcessAudio() {
	if free := m.out.Free() / m.numOut; free > 0 {
		m.MixFrames(free)
	}
	if m.in != nil {
		m.drainInput()
	}
}

// MixFrames mixes the next n frames of all active stimuli and pushes them to
// the out queue. n is limited to the free space of the queue; MixFrames
// returns the number of frames pushed.
func (m *Mixer) MixFrames(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n = min(n, m.out.Free()/m.numOut)
	if n <= 0 {
		return 0
	}

	windowStart := m.numOutFrames.Load()
	windowStop := windowStart + int64(n)
	accum := m.accum[:n*m.numOut]
	clear(accum)

	for _, s := range m.active {
		start := s.StartFrame()
		total := s.NumFrames()

		if total == 0 {
			m.removed = append(m.removed, removal{stim: s})
			continue
		}
		if total >= 0 && start+total <= windowStart {
			m.logger.Log(context.Background(), LevelCritical,
				"stimulus window passed before it was mixed",
				"start frame", start,
				"frames", total,
				"window start", windowStart,
			)
			m.removed = append(m.removed, removal{stim: s, reason: "window passed"})
			continue
		}
		if start >= windowStop {
			continue
		}

		cm := s.channelMapping()
		if cm == nil {
			m.logger.Log(context.Background(), LevelCritical,
				"stimulus has no channel map, dropping it")
			m.removed = append(m.removed, removal{stim: s, reason: "no channel map"})
			continue
		}

		offset := int(max(0, start-windowStart))
		toRead := int64(n - offset)
		if total >= 0 {
			toRead = min(toRead, total-s.NumFramesPresented())
		}
		if toRead > 0 {
			frames, eof := m.readStimulus(s, int(toRead))
			if frames > 0 {
				from := offset * m.numOut
				cm.Apply(accum[from:], m.scratch, frames)
			}
			if eof {
				s.truncate()
			}
		}

		if total = s.NumFrames(); total >= 0 && s.NumFramesPresented() >= total {
			m.removed = append(m.removed, removal{stim: s})
		}
	}

	if err := m.out.Push(accum); err != nil {
		// The queue has one producer and n was limited to its free space.
		panic(fmt.Sprintf("playback: out queue push: %v", err))
	}
	m.numOutFrames.Add(int64(n))
	m.metrics.RecordFramesMixed(context.Background(), m.name, int64(n))

	m.removeMarked()
	return n
}

// readStimulus reads frames of s into the scratch buffer and reports how
// many it got and whether the source is exhausted.
func (m *Mixer) readStimulus(s *Stimulus, frames int) (int, bool) {
	need := frames * s.NumChannels()
	if cap(m.scratch) < need {
		m.scratch = make([]float32, need)
	}
	m.scratch = m.scratch[:need]
	clear(m.scratch)

	got, err := s.read(m.scratch, frames)
	if err != nil && !errors.Is(err, io.EOF) {
		m.logger.Error("stimulus read failed", "err", err)
		return got, true
	}
	return got, err != nil
}

func (m *Mixer) removeMarked() {
	if len(m.removed) == 0 {
		return
	}

	for _, r := range m.removed {
		for i, s := range m.active {
			if s == r.stim {
				m.active = append(m.active[:i], m.active[i+1:]...)
				break
			}
		}
		m.numActive.Add(-1)
		m.metrics.RecordRemoved(context.Background(), m.name, r.reason)
		m.finish(r.stim)
	}
	clear(m.removed)
	m.removed = m.removed[:0]
}

func (m *Mixer) finish(s *Stimulus) {
	end, err := s.computeEnd(m.sampleRate)
	if err != nil {
		m.logger.Warn("cannot compute stimulus end time", "err", err)
		end = m.device.clock.Now()
	}
	if s.finish(end) {
		m.device.deliver(s.finishedHandlers(), end, true)
	}
}

// ReadFrames pops up to len(dst) samples for the hardware callback and
// returns how many it popped.
func (m *Mixer) ReadFrames(dst []float32) int {
	return m.out.PopAvailable(dst)
}

func (m *Mixer) pushInput(in []float32) {
	_ = m.in.Push(in)
}

func (m *Mixer) drainInput() {
	m.mu.Lock()
	defer m.mu.Unlock()

	avail := m.in.Size()
	avail -= avail % m.numIn
	if avail == 0 {
		return
	}
	buf := m.inBuf[:avail]
	if err := m.in.Pop(buf); err != nil {
		return
	}
	m.numInFrames.Add(int64(avail / m.numIn))
	if m.inputTap != nil {
		m.inputTap(buf)
	}
}

// Reset empties the queues, zeroes the frame counters and finishes every
// active stimulus. The device must not be started.
func (m *Mixer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.active {
		m.removed = append(m.removed, removal{stim: s, reason: "reset"})
	}
	m.removeMarked()

	m.out.Clear()
	if m.in != nil {
		m.in.Clear()
	}
	m.numOutFrames.Store(0)
	m.numInFrames.Store(0)
}
