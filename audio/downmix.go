// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Downmix averages all channels of a source into one.
type Downmix struct {
	src      Source
	frames   *FrameReader
	channels int
	tmp      []float32
}

func NewDownmix(src Source) *Downmix {
	return &Downmix{
		src:      src,
		frames:   NewFrameReader(src),
		channels: src.Channels(),
	}
}

func (m *Downmix) SampleRate() int { return m.src.SampleRate() }
func (m *Downmix) Channels() int   { return 1 }

func (m *Downmix) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// NumFrames passes the length of the source through.
func (m *Downmix) NumFrames() int64 {
	if l, ok := m.src.(Lengther); ok {
		return l.NumFrames()
	}
	return -1
}

func (m *Downmix) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if m.channels == 1 {
		return m.frames.ReadFrames(dst)
	}

	need := len(dst) * m.channels
	if cap(m.tmp) < need {
		m.tmp = make([]float32, need)
	}
	m.tmp = m.tmp[:need]

	frames, err := m.frames.ReadFrames(m.tmp)

	switch m.channels {
	case 2:
		for f := range frames {
			dst[f] = (m.tmp[2*f] + m.tmp[2*f+1]) * 0.5
		}
	default:
		inv := 1 / float32(m.channels)
		for f := range frames {
			var sum float32
			for _, v := range m.tmp[f*m.channels : (f+1)*m.channels] {
				sum += v
			}
			dst[f] = sum * inv
		}
	}
	return frames, err
}
