// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with
// github.com/jfreymuth/oggvorbis.
//
// Samples come out as interleaved float32 in the channel layout of the
// stream. Seekable inputs also report their length in frames; streams whose
// length cannot be determined report -1.
//
//	f, _ := os.Open("noise.ogg")
//	src, err := vorbis.Decoder{}.Decode(f)
package vorbis
