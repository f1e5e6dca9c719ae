// SPDX-License-Identifier: EPL-2.0

// Package formats wires the decoders of its subpackages into an
// audio.Registry.
package formats

import (
	"github.com/ik5/psyaudio/audio"
	"github.com/ik5/psyaudio/formats/aiff"
	"github.com/ik5/psyaudio/formats/mp3"
	"github.com/ik5/psyaudio/formats/vorbis"
	"github.com/ik5/psyaudio/formats/wav"
)

// Register adds every bundled decoder to r under the file extensions it
// handles.
func Register(r *audio.Registry) {
	r.Register("wav", wav.Decoder{})
	r.Register("wave", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
	r.Register("aif", aiff.Decoder{})
	r.Register("aiff", aiff.Decoder{})
}

// NewRegistry returns a registry holding every bundled decoder.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	Register(r)
	return r
}
