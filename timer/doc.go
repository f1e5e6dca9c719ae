// SPDX-License-Identifier: EPL-2.0

// Package timer fires callbacks at TimePoints of a timing.Clock.
//
// One Thread serves any number of Timers. It keeps the armed timers ordered
// by fire time and spins through the last couple of milliseconds before a
// deadline instead of sleeping, so callbacks are dispatched close to the
// requested instant. The callback itself runs on the loop.Loop the Timer was
// created with, so application code never runs on the timer goroutine.
//
//	th := timer.NewThread(clock)
//	defer th.Stop()
//
//	tm := th.NewTimer(appLoop)
//	tm.OnFire(func(tp timing.TimePoint) { fmt.Println("fired for", tp) })
//	_ = tm.SetFireTime(deadline)
//
// Cancel is synchronous: once it returns the callback will not run.
package timer
