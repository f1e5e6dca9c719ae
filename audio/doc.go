// SPDX-License-Identifier: EPL-2.0

// Package audio provides the low-level building blocks of the playback
// engine.
//
// This package contains:
//   - Queue, the ring buffer between the mixer and the hardware callback
//   - ChannelMap, the routing table from stimulus channels to device channels
//   - SampleRate, the enumeration of supported device rates
//   - Source, Decoder and Registry for decoded audio files
//   - Resampler for sample rate conversion of decoded sources
//
// # Queue
//
// A Queue holds interleaved float32 samples. Its capacity is rounded up to a
// power of two. Push and Pop never move part of a request:
//
//	q, _ := audio.NewQueue(1920)
//	if err := q.Push(samples); errors.Is(err, audio.ErrQueueFull) {
//	    // nothing was written
//	}
//
// The hardware callback uses PopAvailable and pads the rest with silence.
//
// # Channel Maps
//
// A ChannelMap says which stimulus channel is summed into which device
// channel:
//
//	// mono stimulus on a stereo device: {(0,0), (1,0)}
//	m, _ := audio.NewChannelMapWithStrategy(2, 1, audio.StrategyDefault)
//
//	// stereo stimulus on a mono device, both channels summed: {(0,0), (0,1)}
//	m, _ = audio.NewChannelMapWithStrategy(1, 2, audio.StrategyMixTrailingInputs)
//
// Add and Set validate the channel indices and report false instead of
// panicking.
//
// # Sample Format
//
// Audio samples are represented as float32 in the range [-1.0, 1.0]:
//   - 0.0 represents silence
//   - 1.0 represents maximum positive amplitude
//   - -1.0 represents maximum negative amplitude
//
// Mixing sums samples and never clips; values outside the range are left to
// the hardware.
package audio
