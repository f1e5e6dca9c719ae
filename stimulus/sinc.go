// SPDX-License-Identifier: EPL-2.0

package stimulus

import (
	"errors"
	"fmt"
	"io"

	"github.com/oov/audio/resampler"

	"github.com/ik5/psyaudio/audio"
)

const sincChunkFrames = 1024

// sincResampler converts an interleaved source to another rate with the
// windowed sinc resampler of github.com/oov/audio, one planar channel at a
// time. After the source ends the filter is flushed with silence until the
// output has the length the input implies.
type sincResampler struct {
	src      audio.Source
	frames   *audio.FrameReader
	r        *resampler.Resampler
	channels int
	inRate   int
	outRate  int

	in      []float32
	planIn  [][]float32
	planOut [][]float32
	pending []float32

	consumed int64
	produced int64
	eof      bool
	done     bool
}

func newSincResampler(src audio.Source, outRate, quality int) *sincResampler {
	ch := src.Channels()
	s := &sincResampler{
		src:      src,
		frames:   audio.NewFrameReader(src),
		r:        resampler.New(ch, src.SampleRate(), outRate, quality),
		channels: ch,
		inRate:   src.SampleRate(),
		outRate:  outRate,
		in:       make([]float32, sincChunkFrames*ch),
		planIn:   make([][]float32, ch),
		planOut:  make([][]float32, ch),
	}
	outFrames := sincChunkFrames*outRate/src.SampleRate() + 64
	for c := range ch {
		s.planIn[c] = make([]float32, sincChunkFrames)
		s.planOut[c] = make([]float32, outFrames)
	}
	return s
}

func (s *sincResampler) SampleRate() int { return s.outRate }
func (s *sincResampler) Channels() int   { return s.channels }

func (s *sincResampler) Close() error {
	if err := s.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// NumFrames scales the source length to the output rate, or returns -1.
func (s *sincResampler) NumFrames() int64 {
	l, ok := s.src.(audio.Lengther)
	if !ok || l.NumFrames() < 0 {
		return -1
	}
	return s.expected(l.NumFrames())
}

func (s *sincResampler) expected(in int64) int64 {
	return (in*int64(s.outRate) + int64(s.inRate) - 1) / int64(s.inRate)
}

func (s *sincResampler) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	n := 0
	for n < want {
		if len(s.pending) > 0 {
			c := copy(dst[n:want], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		if s.done {
			break
		}
		if err := s.fill(); err != nil {
			return n, err
		}
	}
	if n == 0 && s.done && want > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// fill runs one chunk of input, or of trailing silence, through the filter.
func (s *sincResampler) fill() error {
	var frames int
	if !s.eof {
		var err error
		frames, err = s.frames.ReadFrames(s.in)
		switch {
		case errors.Is(err, io.EOF):
			s.eof = true
		case err != nil:
			return err
		}
		for f := range frames {
			for c := range s.channels {
				s.planIn[c][f] = s.in[f*s.channels+c]
			}
		}
		s.consumed += int64(frames)
	}

	limit := int64(-1)
	if s.eof {
		limit = s.expected(s.consumed)
		if s.produced >= limit {
			s.done = true
			return nil
		}
		if frames == 0 {
			frames = sincChunkFrames
			for c := range s.channels {
				clear(s.planIn[c])
			}
		}
	}

	s.pending = s.pending[:0]
	for off := 0; off < frames; {
		var read, written int
		for c := range s.channels {
			read, written = s.r.ProcessFloat32(c, s.planIn[c][off:frames], s.planOut[c])
		}
		if limit >= 0 {
			written = int(min(int64(written), limit-s.produced))
		}
		for f := range written {
			for c := range s.channels {
				s.pending = append(s.pending, s.planOut[c][f])
			}
		}
		s.produced += int64(written)
		off += read
		if read == 0 && written == 0 {
			break
		}
	}
	if limit >= 0 && s.produced >= limit {
		s.done = len(s.pending) == 0
	}
	return nil
}
