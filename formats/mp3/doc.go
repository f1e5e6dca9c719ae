// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1 Layer III streams with
// github.com/hajimehoshi/go-mp3.
//
// The decoder always produces 2 channels of float32 samples in [-1,1], at
// the sample rate of the first frame. Mono files are duplicated onto both
// channels by go-mp3.
//
//	f, _ := os.Open("cue.mp3")
//	src, err := mp3.Decoder{}.Decode(f)
//
// When the input is an io.Seeker the source also reports its length in
// frames through audio.Lengther; otherwise NumFrames returns -1.
package mp3
