// SPDX-License-Identifier: EPL-2.0

package timing

import (
	"fmt"
	"math"
	"time"
)

// Duration is an immutable span of time with microsecond resolution.
type Duration struct {
	us int64
}

// NewDurationUs returns a Duration of us microseconds.
func NewDurationUs(us int64) Duration {
	return Duration{us: us}
}

// NewDurationMs returns a Duration of ms milliseconds.
func NewDurationMs(ms int64) (Duration, error) {
	us, ok := mulInt64(ms, 1000)
	if !ok {
		return Duration{}, fmt.Errorf("%d ms: %w", ms, ErrOverflow)
	}
	return Duration{us: us}, nil
}

// NewDurationS returns a Duration of s seconds.
func NewDurationS(s int64) (Duration, error) {
	us, ok := mulInt64(s, 1_000_000)
	if !ok {
		return Duration{}, fmt.Errorf("%d s: %w", s, ErrOverflow)
	}
	return Duration{us: us}, nil
}

// NewDuration converts fractional seconds, rounding to the nearest
// microsecond.
func NewDuration(seconds float64) (Duration, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Duration{}, ErrNotRepresented
	}
	us := math.Round(seconds * 1e6)
	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits.
	if us >= math.MaxInt64 || us < math.MinInt64 {
		return Duration{}, fmt.Errorf("%g s: %w", seconds, ErrOverflow)
	}
	return Duration{us: int64(us)}, nil
}

// FromStd converts a time.Duration, truncating below one microsecond.
func FromStd(d time.Duration) Duration {
	return Duration{us: d.Microseconds()}
}

func (d Duration) Us() int64 { return d.us }
func (d Duration) Ms() int64 { return d.us / 1000 }
func (d Duration) S() int64  { return d.us / 1_000_000 }

// Seconds returns the duration as fractional seconds.
func (d Duration) Seconds() float64 {
	return float64(d.us) / 1e6
}

// Std converts to a time.Duration, saturating at its range.
func (d Duration) Std() time.Duration {
	ns, ok := mulInt64(d.us, 1000)
	if !ok {
		if d.us < 0 {
			return time.Duration(math.MinInt64)
		}
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

func (d Duration) Add(o Duration) (Duration, error) {
	us, ok := addInt64(d.us, o.us)
	if !ok {
		return Duration{}, ErrOverflow
	}
	return Duration{us: us}, nil
}

func (d Duration) Sub(o Duration) (Duration, error) {
	us, ok := subInt64(d.us, o.us)
	if !ok {
		return Duration{}, ErrOverflow
	}
	return Duration{us: us}, nil
}

func (d Duration) MulScalar(n int64) (Duration, error) {
	us, ok := mulInt64(d.us, n)
	if !ok {
		return Duration{}, ErrOverflow
	}
	return Duration{us: us}, nil
}

// DivScalar divides by n, truncating toward zero.
func (d Duration) DivScalar(n int64) (Duration, error) {
	if n == 0 {
		return Duration{}, ErrDivideByZero
	}
	if d.us == math.MinInt64 && n == -1 {
		return Duration{}, ErrOverflow
	}
	return Duration{us: d.us / n}, nil
}

// Divide returns how many whole times o fits in d.
func (d Duration) Divide(o Duration) (int64, error) {
	if o.us == 0 {
		return 0, ErrDivideByZero
	}
	if d.us == math.MinInt64 && o.us == -1 {
		return 0, ErrOverflow
	}
	return d.us / o.us, nil
}

// DivideRounded returns d/o rounded to the nearest integer, halves away from
// zero. It is used to turn wall-clock durations into frame counts.
func (d Duration) DivideRounded(o Duration) (int64, error) {
	if o.us == 0 {
		return 0, ErrDivideByZero
	}
	q, ok := divRounded(d.us, o.us)
	if !ok {
		return 0, ErrOverflow
	}
	return q, nil
}

// Compare returns -1, 0 or +1.
func (d Duration) Compare(o Duration) int {
	switch {
	case d.us < o.us:
		return -1
	case d.us > o.us:
		return 1
	}
	return 0
}

func (d Duration) Less(o Duration) bool         { return d.us < o.us }
func (d Duration) LessEqual(o Duration) bool    { return d.us <= o.us }
func (d Duration) Greater(o Duration) bool      { return d.us > o.us }
func (d Duration) GreaterEqual(o Duration) bool { return d.us >= o.us }
func (d Duration) Equal(o Duration) bool        { return d.us == o.us }
func (d Duration) IsZero() bool                 { return d.us == 0 }
func (d Duration) IsNegative() bool             { return d.us < 0 }

func (d Duration) String() string {
	return d.Std().String()
}
