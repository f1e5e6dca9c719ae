// SPDX-License-Identifier: EPL-2.0

package vorbis_test

import (
	"fmt"
	"log"
	"os"

	"github.com/ik5/psyaudio/audio"
	"github.com/ik5/psyaudio/formats/vorbis"
)

// ExampleDecoder_Decode shows how to decode an Ogg Vorbis file and resample
// it for a 48 kHz device.
func ExampleDecoder_Decode() {
	f, err := os.Open("noise.ogg")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	src, err := vorbis.Decoder{}.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	rs := audio.NewResampler(src, 48000)
	defer rs.Close()

	fmt.Printf("%d Hz, %d channels\n", rs.SampleRate(), rs.Channels())
}
