// SPDX-License-Identifier: EPL-2.0

// Package timing provides the microsecond time base used by the playback
// engine.
//
// A Duration is a signed count of microseconds. A TimePoint is the number of
// microseconds since the zero of the Clock that produced it. All arithmetic is
// checked: an operation that would leave the int64 range returns ErrOverflow
// instead of wrapping.
//
//	clock := timing.NewClock()
//	start := clock.Now()
//	dur, _ := timing.NewDurationMs(250)
//	stop, err := start.Add(dur)
//	if err != nil {
//	    return err
//	}
//
// TimePoints from different clocks are not comparable; pass a single Clock to
// every component that needs one.
package timing
