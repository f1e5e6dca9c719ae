// SPDX-License-Identifier: EPL-2.0

// Package playback schedules auditory stimuli on an audio device with frame
// accurate onsets.
//
// Three goroutines are involved:
//   - the hardware callback, which calls Device.Render and only touches the
//     out queue and atomics
//   - the mixer goroutine, which keeps the out queue filled every
//     millisecond
//   - the application, which plays stimuli and runs the event loop that
//     receives notifications
//
// # Scheduling
//
// A stimulus is bound to an open device and played at a time point of the
// device clock:
//
//	dev := playback.NewDevice(backend, playback.WithClock(clock))
//	if err := dev.Open(ctx); err != nil {
//	    return err
//	}
//	go dev.Events().Run(ctx)
//
//	stim := playback.NewStimulus(src)
//	_ = stim.SetDevice(dev)
//	stim.OnFinished(func(end timing.TimePoint) { ... })
//	start, _ := clock.Now().Add(timing.NewDurationUs(100_000))
//	err := stim.PlayFor(start, timing.NewDurationUs(50_000))
//
// The start frame is derived from the latest callback: the frame count it
// rendered and the time that frame reaches the DAC. Playing before the
// first callback fails with ErrNoClockReference. A start time closer than
// the buffer duration is late and the stimulus starts with the next frame
// the mixer produces.
//
// Mixing is additive and never clips.
package playback
