// SPDX-License-Identifier: EPL-2.0

package timing

import (
	"math"
	"time"
)

// Clock is a monotonic time source. Its zero is the moment it was created.
//
// A program is expected to own a single Clock and hand it to every device,
// timer and trigger; the psyaudio Runtime does this.
type Clock struct {
	zero time.Time
}

func NewClock() *Clock {
	return &Clock{zero: time.Now()}
}

// Now returns the current instant.
func (c *Clock) Now() TimePoint {
	return TimePoint{ticks: time.Since(c.zero).Microseconds()}
}

// Zero returns the wall-clock moment of tick 0. It carries a monotonic
// reading.
func (c *Clock) Zero() time.Time { return c.zero }

// FromTime converts a time.Time taken in this process to a TimePoint.
func (c *Clock) FromTime(t time.Time) TimePoint {
	return TimePoint{ticks: t.Sub(c.zero).Microseconds()}
}

// Time converts tp back to a time.Time.
func (c *Clock) Time(tp TimePoint) time.Time {
	return c.zero.Add(Duration{us: tp.ticks}.Std())
}

// Until returns tp - Now. It saturates instead of failing, so it is safe in
// wait loops.
func (c *Clock) Until(tp TimePoint) Duration {
	d, err := tp.Sub(c.Now())
	if err != nil {
		if tp.ticks < 0 {
			return Duration{us: math.MinInt64}
		}
		return Duration{us: math.MaxInt64}
	}
	return d
}
