// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes integer PCM WAV files on top of
// github.com/go-audio/wav.
//
// Decoder returns an audio.Source producing float32 samples in [-1,1] for
// 8, 16, 24 and 32 bit PCM with any channel count and sample rate. The
// source also reports its length in frames, taken from the data chunk.
//
//	f, _ := os.Open("tone.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
// Writer goes the other way and is used to capture rendered device output:
//
//	out, _ := os.Create("capture.wav")
//	w, _ := wav.NewWriter(out, 48000, 2, 16)
//	_ = w.Write(frames)
//	_ = w.Close()
//
// Floating point WAV (format tag 3) is rejected with ErrOnlyPCMSupported.
package wav
