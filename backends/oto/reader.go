// SPDX-License-Identifier: EPL-2.0

package oto

import (
	"encoding/binary"
	"math"

	"github.com/ik5/psyaudio/playback"
	"github.com/ik5/psyaudio/timing"
)

// renderReader turns Device.Render into the float32 little endian byte
// stream oto reads.
type renderReader struct {
	device   *playback.Device
	channels int
	latency  timing.Duration
	buf      []float32
}

func newRenderReader(d *playback.Device, latency timing.Duration, periodFrames int) *renderReader {
	ch := d.NumOutputChannels()
	return &renderReader{
		device:   d,
		channels: ch,
		latency:  latency,
		buf:      make([]float32, periodFrames*ch),
	}
}

// Read renders as many whole frames as fit into p.
func (r *renderReader) Read(p []byte) (int, error) {
	frameBytes := 4 * r.channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	if need := frames * r.channels; cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	out := r.buf[:frames*r.channels]

	now := r.device.Clock().Now()
	tpOut, err := now.Add(r.latency)
	if err != nil {
		tpOut = now
	}
	r.device.Render(out, nil, now, tpOut)

	for i, v := range out {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	return frames * frameBytes, nil
}
