// SPDX-License-Identifier: EPL-2.0

package timer

import (
	"container/heap"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/ik5/psyaudio/loop"
	"github.com/ik5/psyaudio/timing"
)

const (
	// messageTimeout is the longest the thread blocks on its message queue.
	messageTimeout = time.Second
	// busyWindow is how close to a deadline the thread stops sleeping and
	// starts polling the clock.
	busyWindow = 2 * time.Millisecond
)

type msgKind int

const (
	msgStop msgKind = iota
	msgAdd
	msgDel
)

type message struct {
	kind   msgKind
	timer  *Timer
	fireAt timing.TimePoint
	gen    uint64
}

// Thread is the goroutine that keeps track of armed timers.
type Thread struct {
	clock  *timing.Clock
	logger *slog.Logger

	msgs     chan message
	done     chan struct{}
	stopOnce sync.Once

	// Owned by the run goroutine.
	armed   timerHeap
	entries map[*Timer]*entry
	seq     uint64
}

// Option configures a Thread.
type Option func(*Thread)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Thread) { t.logger = logger }
}

// NewThread starts a timer thread reading time from clock.
func NewThread(clock *timing.Clock, opts ...Option) *Thread {
	t := &Thread{
		clock:   clock,
		logger:  slog.Default(),
		msgs:    make(chan message, 64),
		done:    make(chan struct{}),
		entries: make(map[*Timer]*entry),
	}
	for _, o := range opts {
		o(t)
	}
	go t.run()
	return t
}

// Clock returns the clock the thread measures fire times against.
func (t *Thread) Clock() *timing.Clock { return t.clock }

// NewTimer creates a disarmed timer whose callbacks run on l.
func (t *Thread) NewTimer(l *loop.Loop) *Timer {
	return &Timer{
		thread: t,
		loop:   l,
		reply:  make(chan struct{}, 1),
	}
}

// Stop ends the thread. Armed timers are dropped without firing.
func (t *Thread) Stop() {
	t.stopOnce.Do(func() {
		select {
		case t.msgs <- message{kind: msgStop}:
		case <-t.done:
		}
		<-t.done
	})
}

// send delivers m unless the thread has already stopped.
func (t *Thread) send(m message) error {
	select {
	case <-t.done:
		return ErrThreadStopped
	default:
	}
	select {
	case t.msgs <- m:
		return nil
	case <-t.done:
		return ErrThreadStopped
	}
}

func (t *Thread) run() {
	defer close(t.done)

	wait := time.NewTimer(messageTimeout)
	defer wait.Stop()

	for {
		d := messageTimeout
		if len(t.armed) > 0 {
			until := t.clock.Until(t.armed[0].fireAt).Std() - busyWindow
			d = min(d, max(until, 0))
		}
		wait.Reset(d)

		select {
		case m := <-t.msgs:
			if !t.handle(m) || !t.drain() {
				return
			}
		case <-wait.C:
		}

		if !t.spin() {
			return
		}
	}
}

// drain handles queued messages without blocking. It reports false on stop.
func (t *Thread) drain() bool {
	for {
		select {
		case m := <-t.msgs:
			if !t.handle(m) {
				return false
			}
		default:
			return true
		}
	}
}

// spin fires due timers while the earliest one lies inside the busy window.
func (t *Thread) spin() bool {
	for len(t.armed) > 0 {
		until := t.clock.Until(t.armed[0].fireAt).Std()
		if until > busyWindow {
			return true
		}
		if until <= 0 {
			e := heap.Pop(&t.armed).(*entry)
			delete(t.entries, e.timer)
			e.timer.dispatch(e.gen, e.fireAt)
			continue
		}
		if !t.drain() {
			return false
		}
		runtime.Gosched()
	}
	return true
}

func (t *Thread) handle(m message) bool {
	switch m.kind {
	case msgStop:
		t.logger.Debug("timer thread stopping", "armed", len(t.armed))
		return false
	case msgAdd:
		t.remove(m.timer)
		t.seq++
		e := &entry{timer: m.timer, fireAt: m.fireAt, gen: m.gen, seq: t.seq}
		heap.Push(&t.armed, e)
		t.entries[m.timer] = e
	case msgDel:
		t.remove(m.timer)
		m.timer.reply <- struct{}{}
	}
	return true
}

func (t *Thread) remove(tm *Timer) {
	e, ok := t.entries[tm]
	if !ok {
		return
	}
	heap.Remove(&t.armed, e.index)
	delete(t.entries, tm)
}
