// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/ik5/psyaudio/utils"
)

// maxEmptyReads bounds how often a source may return (0, nil) in a row
// before the resampler treats it as exhausted.
const maxEmptyReads = 16

// Resampler streams src at a new sample rate using Catmull-Rom interpolation.
// Works on interleaved samples; preserves channel count.
type Resampler struct {
	src      Source
	frames   *FrameReader
	channels int
	dstRate  int
	step     float64 // source frames advanced per output frame

	// hist holds the source frames around the read position:
	// hist[0] = t-1, hist[1] = t0, hist[2] = t+1, hist[3] = t+2
	hist   [4][]float32
	pos    float64 // fractional position between hist[1] and hist[2]
	cur    int64   // source index of hist[1]
	loaded int64   // source frames pulled so far
	primed bool
	eof    bool

	in    []float32
	inPos int
	inLen int
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	r := &Resampler{
		src:      src,
		frames:   NewFrameReader(src),
		channels: channels,
		dstRate:  dstRate,
		step:     float64(src.SampleRate()) / float64(dstRate),
		in:       make([]float32, channels*1024),
	}
	for i := range r.hist {
		r.hist[i] = make([]float32, channels)
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// NumFrames scales the source length to the output rate, or returns -1.
func (r *Resampler) NumFrames() int64 {
	l, ok := r.src.(Lengther)
	if !ok {
		return -1
	}
	n := l.NumFrames()
	if n < 0 {
		return -1
	}
	return int64(math.Ceil(float64(n) / r.step))
}

// next copies the next source frame into dst. It reports false once the
// source is exhausted.
func (r *Resampler) next(dst []float32) (bool, error) {
	for empty := 0; r.inPos >= r.inLen; {
		if r.eof {
			return false, nil
		}
		n, err := r.frames.ReadFrames(r.in)
		r.inPos, r.inLen = 0, n*r.channels
		if err == io.EOF {
			r.eof = true
		} else if err != nil {
			return false, fmt.Errorf("%w", err)
		}
		if n == 0 {
			if empty++; empty >= maxEmptyReads {
				r.eof = true
			}
		}
	}
	copy(dst, r.in[r.inPos:r.inPos+r.channels])
	r.inPos += r.channels
	r.loaded++
	return true, nil
}

// shift moves the window one source frame forward, repeating the last real
// frame once the source runs dry.
func (r *Resampler) shift() error {
	first := r.hist[0]
	copy(r.hist[:], r.hist[1:])
	r.hist[3] = first
	ok, err := r.next(r.hist[3])
	if err != nil {
		return err
	}
	if !ok {
		copy(r.hist[3], r.hist[2])
	}
	r.cur++
	return nil
}

func (r *Resampler) prime() error {
	ok, err := r.next(r.hist[1])
	if err != nil || !ok {
		return err
	}
	copy(r.hist[0], r.hist[1])
	for i := 2; i < 4; i++ {
		ok, err := r.next(r.hist[i])
		if err != nil {
			return err
		}
		if !ok {
			copy(r.hist[i], r.hist[i-1])
		}
	}
	r.primed = true
	return nil
}

// ReadSamples produces resampled interleaved samples into dst, whose length
// must be a multiple of Channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
		if !r.primed {
			return 0, io.EOF
		}
	}

	frames := len(dst) / r.channels
	written := 0
	for written < frames {
		for r.pos >= 1 {
			r.pos--
			if err := r.shift(); err != nil {
				return written * r.channels, err
			}
		}
		if r.eof && r.cur >= r.loaded {
			return written * r.channels, io.EOF
		}

		utils.CatmullRomFrame(dst[written*r.channels:(written+1)*r.channels], &r.hist, float32(r.pos))
		written++
		r.pos += r.step
	}
	return written * r.channels, nil
}
