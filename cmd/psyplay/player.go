// SPDX-License-Identifier: EPL-2.0

package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/ik5/psyaudio/config"
	"github.com/ik5/psyaudio/playback"
	"github.com/ik5/psyaudio/timing"
	"github.com/ik5/psyaudio/trigger"
)

func msDuration(ms int64) timing.Duration { return timing.NewDurationUs(ms * 1000) }

// player schedules a playlist on an open device relative to one anchor.
type player struct {
	device *playback.Device
	clock  *timing.Clock
	logger *slog.Logger
	trig   *trigger.ParallelTrigger
	pulse  timing.Duration
	// lead is the distance between the first device callback and the
	// anchor. Zero uses twice the buffer duration plus 100ms.
	lead timing.Duration
}

type pulse struct {
	index int
	mask  byte
	at    timing.TimePoint
}

// play opens the device, schedules every entry of pl and waits until all of
// them have finished.
func (p *player) play(ctx context.Context, pl *config.Playlist) error {
	started := make(chan timing.TimePoint, 1)
	p.device.OnStarted(func(tp timing.TimePoint) {
		select {
		case started <- tp:
		default:
		}
	})
	if err := p.device.Open(ctx); err != nil {
		return fmt.Errorf("open device: %w", err)
	}

	var first timing.TimePoint
	select {
	case first = <-started:
	case <-ctx.Done():
		return ctx.Err()
	}

	lead := p.lead
	if lead.IsZero() {
		buf := p.device.BufferDuration()
		lead = timing.NewDurationUs(2*buf.Us() + 100_000)
	}
	anchor, err := p.clock.Now().Add(lead)
	if err != nil {
		return err
	}
	p.logger.Info("playlist anchored",
		"first callback", first,
		"anchor", anchor,
		"stimuli", len(pl.Stimuli),
	)

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	finished := make(chan int, len(pl.Stimuli))
	var pulses []pulse
	for i, e := range pl.Stimuli {
		stim, closer, err := p.schedule(i, e, anchor, finished)
		if closer != nil {
			closers = append(closers, closer)
		}
		if err != nil {
			return fmt.Errorf("stimuli[%d]: %w", i, err)
		}
		if p.trig != nil && e.TriggerMask != 0 {
			at, _ := stim.StartTime()
			pulses = append(pulses, pulse{index: i, mask: e.TriggerMask, at: at})
		}
	}

	var trigDone <-chan error
	if len(pulses) > 0 {
		trigDone = p.sendTriggers(ctx, pulses)
	}

	for range pl.Stimuli {
		select {
		case <-finished:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if trigDone != nil {
		if err := <-trigDone; err != nil {
			return fmt.Errorf("trigger: %w", err)
		}
	}
	p.logger.Info("playlist finished")
	return nil
}

func (p *player) schedule(i int, e config.Entry, anchor timing.TimePoint, finished chan<- int) (*playback.Stimulus, io.Closer, error) {
	src, closer, err := e.NewSource()
	if err != nil {
		return nil, nil, err
	}

	stim := playback.NewStimulus(src)
	stim.OnFinished(func(end timing.TimePoint) {
		p.logger.Debug("stimulus finished", "index", i, "end", end)
		finished <- i
	})
	if err := stim.SetDevice(p.device); err != nil {
		return nil, closer, err
	}

	start, err := anchor.Add(e.Onset())
	if err != nil {
		return nil, closer, err
	}
	if dur, ok := e.Duration(); ok {
		err = stim.PlayFor(start, dur)
	} else {
		err = stim.Play(start)
	}
	if err != nil {
		return nil, closer, err
	}
	p.logger.Debug("stimulus scheduled", "index", i, "kind", e.Kind, "start", start)
	return stim, closer, nil
}

// sendTriggers writes the pulses one after another in onset order. A pulse
// overlapping the previous one is skipped with a warning.
func (p *player) sendTriggers(ctx context.Context, pulses []pulse) <-chan error {
	slices.SortStableFunc(pulses, func(a, b pulse) int { return cmp.Compare(a.at.Ticks(), b.at.Ticks()) })

	done := make(chan error, 1)
	go func() {
		defer close(done)
		for _, pu := range pulses {
			if !p.clock.Now().Before(pu.at) {
				p.logger.Warn("trigger onset already passed, skipping it", "index", pu.index, "onset", pu.at)
				continue
			}
			err := p.trig.Write(ctx, pu.mask, pu.at, p.pulse)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				done <- err
				return
			}
			if err != nil {
				p.logger.Error("trigger write failed", "index", pu.index, "err", err)
			}
		}
	}()
	return done
}
