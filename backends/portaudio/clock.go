// SPDX-License-Identifier: EPL-2.0

package portaudio

import (
	"time"

	"github.com/ik5/psyaudio/timing"
)

// streamClock maps PortAudio stream times onto a timing.Clock.
type streamClock struct {
	offset int64 // µs from stream time to clock time
}

// sync records the offset between now on the clock and the stream time
// streamNow.
func (c *streamClock) sync(now timing.TimePoint, streamNow time.Duration) {
	c.offset = now.Ticks() - streamNow.Microseconds()
}

func (c *streamClock) toClock(t time.Duration) timing.TimePoint {
	return timing.NewTimePoint(c.offset + t.Microseconds())
}
