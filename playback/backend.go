// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"runtime"
	"sync/atomic"

	"github.com/ik5/psyaudio/timing"
)

// Backend binds a Device to audio hardware.
//
// Open prepares the hardware for the settings of d and keeps d to call
// d.Render from its real-time callback. Start and Stop enable and disable
// that callback. Close releases the hardware.
type Backend interface {
	Open(d *Device) error
	Start() error
	Stop() error
	Close() error
	// DefaultName is used when the device has no name.
	DefaultName() string
}

// FrameStamp ties a device frame count to the moments the buffer starting at
// that frame passed the ADC and will reach the DAC.
type FrameStamp struct {
	Frame int64
	In    timing.TimePoint
	Out   timing.TimePoint
}

// frameClock is a seqlock around the latest FrameStamp. The callback is the
// only writer; readers retry while a write is in progress.
type frameClock struct {
	seq   atomic.Uint64
	frame atomic.Int64
	in    atomic.Int64
	out   atomic.Int64
}

func (c *frameClock) store(frame int64, in, out timing.TimePoint) {
	c.seq.Add(1)
	c.frame.Store(frame)
	c.in.Store(in.Ticks())
	c.out.Store(out.Ticks())
	c.seq.Add(1)
}

func (c *frameClock) load() (FrameStamp, bool) {
	for {
		s := c.seq.Load()
		if s == 0 {
			return FrameStamp{}, false
		}
		if s&1 == 1 {
			runtime.Gosched()
			continue
		}
		fs := FrameStamp{
			Frame: c.frame.Load(),
			In:    timing.NewTimePoint(c.in.Load()),
			Out:   timing.NewTimePoint(c.out.Load()),
		}
		if c.seq.Load() == s {
			return fs, true
		}
	}
}

// reset forgets the stamp. Only call it while the callback is not running.
func (c *frameClock) reset() {
	c.seq.Store(0)
}
