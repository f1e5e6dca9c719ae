// SPDX-License-Identifier: EPL-2.0

package timing

import "strconv"

// TimePoint is an instant measured in microseconds since the zero of a Clock.
type TimePoint struct {
	ticks int64
}

// NewTimePoint returns the instant ticks microseconds after the clock zero.
func NewTimePoint(ticks int64) TimePoint {
	return TimePoint{ticks: ticks}
}

// Ticks returns the microseconds since the clock zero.
func (tp TimePoint) Ticks() int64 { return tp.ticks }

// SinceZero returns the elapsed Duration since the clock zero.
func (tp TimePoint) SinceZero() Duration { return Duration{us: tp.ticks} }

func (tp TimePoint) Add(d Duration) (TimePoint, error) {
	t, ok := addInt64(tp.ticks, d.us)
	if !ok {
		return TimePoint{}, ErrOverflow
	}
	return TimePoint{ticks: t}, nil
}

// SubDuration returns tp - d.
func (tp TimePoint) SubDuration(d Duration) (TimePoint, error) {
	t, ok := subInt64(tp.ticks, d.us)
	if !ok {
		return TimePoint{}, ErrOverflow
	}
	return TimePoint{ticks: t}, nil
}

// Sub returns the Duration tp - o.
func (tp TimePoint) Sub(o TimePoint) (Duration, error) {
	us, ok := subInt64(tp.ticks, o.ticks)
	if !ok {
		return Duration{}, ErrOverflow
	}
	return Duration{us: us}, nil
}

func (tp TimePoint) Compare(o TimePoint) int {
	switch {
	case tp.ticks < o.ticks:
		return -1
	case tp.ticks > o.ticks:
		return 1
	}
	return 0
}

func (tp TimePoint) Before(o TimePoint) bool { return tp.ticks < o.ticks }
func (tp TimePoint) After(o TimePoint) bool  { return tp.ticks > o.ticks }
func (tp TimePoint) Equal(o TimePoint) bool  { return tp.ticks == o.ticks }

func (tp TimePoint) String() string {
	return strconv.FormatInt(tp.ticks, 10) + "µs"
}
