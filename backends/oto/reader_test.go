// SPDX-License-Identifier: EPL-2.0

package oto

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/ik5/psyaudio/internal/audiotest"
	"github.com/ik5/psyaudio/playback"
	"github.com/ik5/psyaudio/timing"
)

func TestRenderReader_Read(t *testing.T) {
	t.Parallel()

	d := playback.NewDevice(&audiotest.ManualBackend{},
		playback.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		playback.WithProcessInterval(0),
		playback.WithOutputChannels(2),
	)
	if err := d.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	r := newRenderReader(d, timing.NewDurationUs(10_000), 16)

	// The first read anchors the device clock and renders silence.
	p := make([]byte, 4*2*16+3)
	n, err := r.Read(p)
	if err != nil || n != 4*2*16 {
		t.Fatalf("Read() = %d, %v; want whole frames only", n, err)
	}
	fs, ok := d.LastKnownFrame()
	if !ok {
		t.Fatal("no clock reference after Read")
	}
	if lead, _ := fs.Out.Sub(fs.In); lead.Us() != 10_000 {
		t.Errorf("DAC time is %v after the render time, want 10ms", lead)
	}

	stim := playback.NewStimulus(audiotest.NewFrameSource(1, audiotest.Ramp))
	if err := stim.SetDevice(d); err != nil {
		t.Fatal(err)
	}
	if err := stim.Play(fs.Out); err != nil {
		t.Fatal(err)
	}
	d.Process()

	n, err = r.Read(p[:4*2*8])
	if err != nil || n != 4*2*8 {
		t.Fatalf("Read() = %d, %v", n, err)
	}
	for f := range 8 {
		for c := range 2 {
			i := 4 * (2*f + c)
			got := math.Float32frombits(binary.LittleEndian.Uint32(p[i:]))
			if got != float32(f+1) {
				t.Fatalf("frame %d channel %d = %v, want %v", f, c, got, f+1)
			}
		}
	}

	if n, err := r.Read(p[:7]); n != 0 || err != nil {
		t.Errorf("Read() of less than a frame = %d, %v", n, err)
	}
}
