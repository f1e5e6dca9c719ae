// SPDX-License-Identifier: EPL-2.0

// Package loop provides an event loop that other goroutines can hand work
// to. Callbacks registered by application code (timer fires, stimulus and
// device notifications) run on the goroutine that runs the Loop, never on
// the audio or timer goroutines.
package loop

import (
	"context"
	"sync"
)

// Loop is an unbounded FIFO of functions drained by a single goroutine.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	quit   chan struct{}
	closed bool
}

func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
}

// Invoke queues fn to run on the loop goroutine. It never blocks. Functions
// queued after Quit are dropped.
func (l *Loop) Invoke(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RunPending runs the functions queued so far and returns how many ran.
func (l *Loop) RunPending() int {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

// Run drains the loop until ctx is done or Quit is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			l.RunPending()
			return nil
		case <-l.wake:
		}
	}
}

// Quit makes Run return after it has drained the queue.
func (l *Loop) Quit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.quit)
}
