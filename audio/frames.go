// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
)

// FrameReader reads whole frames from a Source. Samples of a frame that the
// source split across two reads are held back until the frame is complete.
type FrameReader struct {
	src      Source
	channels int
	carry    []float32
	eof      bool
}

func NewFrameReader(src Source) *FrameReader {
	return &FrameReader{
		src:      src,
		channels: src.Channels(),
		carry:    make([]float32, 0, src.Channels()),
	}
}

// ReadFrames fills dst with up to len(dst)/Channels frames and returns how
// many it read. It only returns short when the source ends, fails or keeps
// returning nothing. io.EOF is returned once no whole frame is left.
func (r *FrameReader) ReadFrames(dst []float32) (int, error) {
	want := len(dst) - len(dst)%r.channels
	if want == 0 {
		return 0, nil
	}

	n := copy(dst[:want], r.carry)
	r.carry = r.carry[:0]

	var err error
	for empty := 0; n < want && !r.eof; {
		var got int
		got, err = r.src.ReadSamples(dst[n:want])
		n += got
		if errors.Is(err, io.EOF) {
			r.eof, err = true, nil
			break
		}
		if err != nil {
			break
		}
		if got == 0 {
			if empty++; empty >= maxEmptyReads {
				break
			}
		}
	}

	whole := n - n%r.channels
	r.carry = append(r.carry, dst[whole:n]...)
	if err != nil {
		return whole / r.channels, err
	}
	if whole == 0 && r.eof {
		return 0, io.EOF
	}
	return whole / r.channels, nil
}

// Done reports whether the source has returned io.EOF.
func (r *FrameReader) Done() bool { return r.eof }
