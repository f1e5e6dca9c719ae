// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF (Audio Interchange File Format) files with
// github.com/go-audio/aiff.
//
// Signed big-endian PCM of 8, 16, 24 and 32 bit is converted to float32 in
// [-1,1]. The frame count of the COMM chunk is reported through
// audio.Lengther, so a file stimulus plays for exactly the length of the
// file unless told otherwise.
//
//	f, _ := os.Open("click.aif")
//	src, err := aiff.Decoder{}.Decode(f)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // not AIFF
//	}
//
// go-audio needs an io.ReadSeeker; other readers are read into memory first.
package aiff
