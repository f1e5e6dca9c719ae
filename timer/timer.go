// SPDX-License-Identifier: EPL-2.0

package timer

import (
	"slices"
	"sync"

	"github.com/ik5/psyaudio/loop"
	"github.com/ik5/psyaudio/timing"
)

// Timer fires its callbacks once per arm, on its loop.
type Timer struct {
	thread *Thread
	loop   *loop.Loop
	reply  chan struct{}

	// opMu serialises SetFireTime and Cancel, each of which talks to the
	// thread.
	opMu sync.Mutex

	mu       sync.Mutex
	fireAt   timing.TimePoint
	armed    bool
	gen      uint64
	handlers []func(timing.TimePoint)
}

// OnFire registers fn. It receives the fire time the timer was armed with.
func (t *Timer) OnFire(fn func(timing.TimePoint)) {
	t.mu.Lock()
	t.handlers = append(t.handlers, fn)
	t.mu.Unlock()
}

// FireTime returns the armed fire time. ok is false for a disarmed timer.
func (t *Timer) FireTime() (tp timing.TimePoint, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fireAt, t.armed
}

// SetFireTime arms the timer for tp, replacing any earlier arm. A tp in the
// past fires as soon as possible.
func (t *Timer) SetFireTime(tp timing.TimePoint) error {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	t.cancelLocked()

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.fireAt = tp
	t.armed = true
	t.mu.Unlock()

	if err := t.thread.send(message{kind: msgAdd, timer: t, fireAt: tp, gen: gen}); err != nil {
		t.mu.Lock()
		t.armed = false
		t.mu.Unlock()
		return err
	}
	return nil
}

// Cancel disarms the timer. After it returns the callbacks of the current
// arm will not run, even if the thread had already dispatched them.
func (t *Timer) Cancel() {
	t.opMu.Lock()
	defer t.opMu.Unlock()
	t.cancelLocked()
}

func (t *Timer) cancelLocked() {
	t.mu.Lock()
	if !t.armed {
		t.mu.Unlock()
		return
	}
	t.armed = false
	t.gen++
	t.mu.Unlock()

	if err := t.thread.send(message{kind: msgDel, timer: t}); err != nil {
		return
	}
	select {
	case <-t.reply:
	case <-t.thread.done:
	}
}

// dispatch is called by the thread goroutine when the arm gen is due.
func (t *Timer) dispatch(gen uint64, fireAt timing.TimePoint) {
	t.loop.Invoke(func() {
		t.mu.Lock()
		if !t.armed || t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.armed = false
		handlers := slices.Clone(t.handlers)
		t.mu.Unlock()

		for _, fn := range handlers {
			fn(fireAt)
		}
	})
}
