// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/psyaudio/audio"
	"github.com/ik5/psyaudio/utils"
)

const (
	channels      = 2
	bytesPerFrame = channels * 2
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	numFrames  int64
	buf        []byte
	done       bool
}

func (s *source) SampleRate() int  { return s.sampleRate }
func (s *source) Channels() int    { return channels }
func (s *source) NumFrames() int64 { return s.numFrames }
func (s *source) Close() error     { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.done {
		return 0, io.EOF
	}

	// go-mp3 returns 16-bit little-endian stereo PCM
	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := io.ReadFull(s.dec, s.buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
	case err != nil:
		return 0, fmt.Errorf("decode mp3: %w", err)
	}

	samples := n / 2
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
		dst[i] = utils.PCMToFloat32(int(v), 16)
	}
	if samples == 0 && s.done {
		return 0, io.EOF
	}
	return samples, nil
}

type Decoder struct{}

// Decode reads the first MP3 frame of r. The length of the stream is only
// known when r is an io.Seeker.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMP3File, err)
	}
	return newSource(dec), nil
}

func newSource(dec mp3Reader) *source {
	numFrames := int64(-1)
	if l := dec.Length(); l >= 0 {
		numFrames = l / bytesPerFrame
	}
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		numFrames:  numFrames,
	}
}
