// SPDX-License-Identifier: EPL-2.0

package psyaudio_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ik5/psyaudio"
	"github.com/ik5/psyaudio/internal/audiotest"
	"github.com/ik5/psyaudio/timing"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRuntime_RefCount(t *testing.T) {
	t.Parallel()

	rt := psyaudio.NewRuntime(psyaudio.WithLogger(discard))
	if rt.Timers() != nil || rt.Events() != nil {
		t.Fatal("services exist before Retain")
	}
	if _, err := rt.NewTimer(); !errors.Is(err, psyaudio.ErrNotRetained) {
		t.Errorf("NewTimer() before Retain error = %v", err)
	}
	if err := rt.Release(); !errors.Is(err, psyaudio.ErrNotRetained) {
		t.Errorf("Release() before Retain error = %v", err)
	}

	if err := rt.Retain(); err != nil {
		t.Fatal(err)
	}
	th, ev := rt.Timers(), rt.Events()
	if th == nil || ev == nil {
		t.Fatal("services missing after Retain")
	}
	if err := rt.Retain(); err != nil {
		t.Fatal(err)
	}
	if rt.Timers() != th || rt.Events() != ev || rt.Refs() != 2 {
		t.Error("second Retain replaced the services")
	}

	if err := rt.Release(); err != nil {
		t.Fatal(err)
	}
	if rt.Timers() != th {
		t.Error("services stopped while still retained")
	}
	if err := rt.Release(); err != nil {
		t.Fatal(err)
	}
	if rt.Timers() != nil || rt.Events() != nil || rt.Refs() != 0 {
		t.Error("services kept after the last Release")
	}

	if err := rt.Retain(); err != nil {
		t.Fatal(err)
	}
	defer rt.Release()
	if rt.Events() == ev {
		t.Error("event loop reused after it was quit")
	}
}

func TestRuntime_TimerFiresOnLoop(t *testing.T) {
	t.Parallel()

	rt := psyaudio.NewRuntime(psyaudio.WithLogger(discard))
	if err := rt.Retain(); err != nil {
		t.Fatal(err)
	}
	defer rt.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Events().Run(ctx)

	tm, err := rt.NewTimer()
	if err != nil {
		t.Fatal(err)
	}
	fired := make(chan timing.TimePoint, 1)
	tm.OnFire(func(tp timing.TimePoint) { fired <- tp })

	at, _ := rt.Clock().Now().Add(timing.NewDurationUs(5000))
	if err := tm.SetFireTime(at); err != nil {
		t.Fatal(err)
	}

	select {
	case tp := <-fired:
		if !tp.Equal(at) {
			t.Errorf("fired with %v, want %v", tp, at)
		}
		if rt.Clock().Now().Before(at) {
			t.Error("timer fired early")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestRuntime_NewDevice(t *testing.T) {
	t.Parallel()

	clock := timing.NewClock()
	rt := psyaudio.NewRuntime(psyaudio.WithLogger(discard), psyaudio.WithClock(clock))
	if err := rt.Retain(); err != nil {
		t.Fatal(err)
	}
	defer rt.Release()

	d := rt.NewDevice(&audiotest.ManualBackend{})
	if d.Clock() != clock {
		t.Error("device does not use the runtime clock")
	}
	if d.Events() != rt.Events() {
		t.Error("device does not use the runtime event loop")
	}
}
