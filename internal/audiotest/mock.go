// SPDX-License-Identifier: EPL-2.0

// Package audiotest has sources and backends for tests.
package audiotest

import (
	"io"
	"math"
	"sync/atomic"
)

// MockSource is an audio.Source generating a waveform.
type MockSource struct {
	sampleRate  int
	channels    int
	totalFrames int
	generated   int
	waveform    func(frame int, channel int) float32
	closed      bool
}

// NewMockSource returns a source of totalFrames frames.
func NewMockSource(sampleRate, channels, totalFrames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:  sampleRate,
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

func NewSilentSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewConstantSource(sampleRate, channels, totalFrames, 0)
}

func NewSineSource(sampleRate, channels, totalFrames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func NewConstantSource(sampleRate, channels, totalFrames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 {
		return value
	})
}

func (m *MockSource) SampleRate() int  { return m.sampleRate }
func (m *MockSource) Channels() int    { return m.channels }
func (m *MockSource) NumFrames() int64 { return int64(m.totalFrames) }
func (m *MockSource) Closed() bool     { return m.closed }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.generated >= m.totalFrames {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.totalFrames-m.generated)
	for f := range frames {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.generated+f, ch)
		}
	}
	m.generated += frames

	if m.generated >= m.totalFrames {
		return frames * m.channels, io.EOF
	}
	return frames * m.channels, nil
}

// FrameSource is a stimulus source whose samples are a function of the frame
// index. It is safe to inspect while the mixer reads it.
type FrameSource struct {
	channels int
	limit    int64
	value    func(frame int64, channel int) float32

	next    atomic.Int64
	reads   atomic.Int64
	stalled atomic.Bool
}

// NewFrameSource returns an endless source.
func NewFrameSource(channels int, value func(frame int64, channel int) float32) *FrameSource {
	return &FrameSource{channels: channels, limit: -1, value: value}
}

// NewLimitedFrameSource returns a source that reports io.EOF after limit
// frames.
func NewLimitedFrameSource(channels int, limit int64, value func(frame int64, channel int) float32) *FrameSource {
	return &FrameSource{channels: channels, limit: limit, value: value}
}

// Ramp is a value function returning frame+1 on every channel.
func Ramp(frame int64, _ int) float32 { return float32(frame + 1) }

func (s *FrameSource) NumChannels() int { return s.channels }

// FramesRead returns how many frames have been produced.
func (s *FrameSource) FramesRead() int64 { return s.next.Load() }

// Reads returns how many times Read was called.
func (s *FrameSource) Reads() int64 { return s.reads.Load() }

// SetStalled makes Read return no frames and no error, as a source that
// cannot keep up would.
func (s *FrameSource) SetStalled(stalled bool) { s.stalled.Store(stalled) }

func (s *FrameSource) Read(dst []float32, numFrames int) (int, error) {
	s.reads.Add(1)
	if s.stalled.Load() {
		return 0, nil
	}
	start := s.next.Load()
	n := int64(numFrames)
	if s.limit >= 0 {
		n = min(n, s.limit-start)
	}
	for f := range n {
		for ch := range s.channels {
			dst[int(f)*s.channels+ch] = s.value(start+f, ch)
		}
	}
	s.next.Add(n)
	if s.limit >= 0 && start+n >= s.limit {
		return int(n), io.EOF
	}
	return int(n), nil
}
