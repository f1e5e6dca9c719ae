// SPDX-License-Identifier: EPL-2.0

// Package psyaudio schedules and mixes auditory stimuli with sample
// accurate onsets for psychophysics experiments.
//
// The pieces live in subpackages:
//   - timing: microsecond durations and time points on a monotonic clock
//   - audio: the float32 Source contract, queues, channel maps and resampling
//   - formats/wav, formats/aiff, formats/mp3, formats/vorbis: file decoders
//   - playback: devices, the mixer and stimulus scheduling
//   - stimulus: generated waves and file backed stimuli
//   - backends/null, backends/oto, backends/portaudio: hardware backends
//   - timer and loop: precise timers whose callbacks run on an event loop
//   - trigger: parallel port trigger pulses
//   - config: viper settings and YAML playlists
//   - observe: OpenTelemetry metrics
//
// # Runtime
//
// A Runtime owns the clock, the timer thread and the event loop shared by
// all devices of a program. It is reference counted:
//
//	rt := psyaudio.NewRuntime()
//	if err := rt.Retain(); err != nil {
//		return err
//	}
//	defer rt.Release()
//
//	go rt.Events().Run(ctx)
//
//	dev := rt.NewDevice(null.New())
//	if err := dev.Open(ctx); err != nil {
//		return err
//	}
//	defer dev.Close()
//
// # Playing a stimulus
//
// Stimuli are scheduled against the time of the device's DAC. Starting times
// must lie at least one buffer duration in the future, otherwise the
// stimulus starts as soon as possible and the mixer logs a warning:
//
//	stim := playback.NewStimulus(stimulus.NewWave(stimulus.WithFrequency(1000)))
//	_ = stim.SetDevice(dev)
//	start, _ := rt.Clock().Now().Add(timing.NewDurationUs(100_000))
//	_ = stim.PlayFor(start, timing.NewDurationUs(200_000))
//	stim.OnFinished(func(tp timing.TimePoint) { fmt.Println("done at", tp) })
package psyaudio
