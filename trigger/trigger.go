// SPDX-License-Identifier: EPL-2.0

package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/psyaudio/observe"
	"github.com/ik5/psyaudio/timing"
)

// Port sets the eight data pins of a parallel port.
type Port interface {
	Write(mask byte) error
	Name() string
	Close() error
}

// Opener opens the parallel port with the given number.
type Opener func(num int) (Port, error)

// spinWindow is how close to a deadline the wait stops sleeping.
const spinWindow = time.Millisecond

// ParallelTrigger writes pulses to a Port. One write may run at a time.
type ParallelTrigger struct {
	clock   *timing.Clock
	logger  *slog.Logger
	metrics *observe.Metrics
	open    Opener

	mu   sync.Mutex
	port Port
	num  int
	busy atomic.Bool
}

type Option func(*ParallelTrigger)

// WithClock sets the clock start times refer to. Use the clock of the
// device the pulses belong to.
func WithClock(c *timing.Clock) Option { return func(t *ParallelTrigger) { t.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(t *ParallelTrigger) { t.logger = l } }

func WithMetrics(m *observe.Metrics) Option { return func(t *ParallelTrigger) { t.metrics = m } }

// WithOpener replaces the platform port, for example with a fake in tests.
func WithOpener(o Opener) Option { return func(t *ParallelTrigger) { t.open = o } }

func New(opts ...Option) *ParallelTrigger {
	t := &ParallelTrigger{
		logger: slog.Default(),
		open:   OpenParport,
		num:    -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.clock == nil {
		t.clock = timing.NewClock()
	}
	return t
}

// Open opens port number num, closing the port opened before.
func (t *ParallelTrigger) Open(num int) error {
	if num < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, num)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.closeLocked(); err != nil {
		t.logger.Warn("closing previous parallel port failed", "err", err)
	}
	p, err := t.open(num)
	if err != nil {
		return err
	}
	t.port = p
	t.num = num
	t.logger.Info("parallel port opened", "port", p.Name())
	return nil
}

func (t *ParallelTrigger) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeLocked()
}

func (t *ParallelTrigger) closeLocked() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.num = -1
	return err
}

func (t *ParallelTrigger) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// PortNum returns the number of the open port, or -1.
func (t *ParallelTrigger) PortNum() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.num
}

// PortName returns the device name of the open port, or "".
func (t *ParallelTrigger) PortName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return ""
	}
	return t.port.Name()
}

func (t *ParallelTrigger) currentPort() Port {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port
}

// Write raises mask at start and clears the pins dur later. It blocks until
// the pins are cleared. When ctx ends after the mask went out the pins are
// still cleared before Write returns the context error.
func (t *ParallelTrigger) Write(ctx context.Context, mask byte, start timing.TimePoint, dur timing.Duration) error {
	if !t.busy.CompareAndSwap(false, true) {
		t.metrics.RecordTriggerWrite(ctx, "busy")
		return ErrBusy
	}
	defer t.busy.Store(false)

	err := t.pulse(ctx, mask, start, dur)
	t.metrics.RecordTriggerWrite(context.Background(), writeStatus(err))
	return err
}

// WriteAsync runs Write on its own goroutine and delivers the result on the
// returned channel.
func (t *ParallelTrigger) WriteAsync(ctx context.Context, mask byte, start timing.TimePoint, dur timing.Duration) <-chan error {
	done := make(chan error, 1)
	go func() { done <- t.Write(ctx, mask, start, dur) }()
	return done
}

func (t *ParallelTrigger) pulse(ctx context.Context, mask byte, start timing.TimePoint, dur timing.Duration) error {
	if dur.IsNegative() {
		return fmt.Errorf("trigger duration %v is negative", dur)
	}
	end, err := start.Add(dur)
	if err != nil {
		return fmt.Errorf("trigger end: %w", err)
	}
	if t.currentPort() == nil {
		return ErrPortClosed
	}

	if err := t.waitUntil(ctx, start); err != nil {
		return err
	}
	p := t.currentPort()
	if p == nil {
		return ErrPortClosed
	}
	if err := p.Write(mask); err != nil {
		return fmt.Errorf("write %s: %w", p.Name(), err)
	}
	if late := t.clock.Until(start); late.Less(timing.NewDurationUs(-1000)) {
		t.logger.Warn("trigger raised late", "port", p.Name(), "late", late)
	}

	waitErr := t.waitUntil(ctx, end)
	if err := p.Write(0); err != nil {
		return errors.Join(waitErr, fmt.Errorf("clear %s: %w", p.Name(), err))
	}
	return waitErr
}

// waitUntil sleeps while tp is more than spinWindow away and spins for the
// rest.
func (t *ParallelTrigger) waitUntil(ctx context.Context, tp timing.TimePoint) error {
	for {
		left := t.clock.Until(tp).Std()
		if left < spinWindow {
			break
		}
		timer := time.NewTimer(min(left-spinWindow, spinWindow))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	for t.clock.Until(tp).Us() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}

func writeStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrPortClosed):
		return "closed"
	}
	return "error"
}
