// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"strconv"
)

// SampleRate is one of the rates a playback device may run at.
type SampleRate int

const (
	SampleRateUnknown SampleRate = -1
	SampleRate22050   SampleRate = 22050
	SampleRate24000   SampleRate = 24000
	SampleRate32000   SampleRate = 32000
	SampleRate44100   SampleRate = 44100
	SampleRate48000   SampleRate = 48000
	SampleRate88200   SampleRate = 88200
	SampleRate96000   SampleRate = 96000
	SampleRate192000  SampleRate = 192000
)

var sampleRates = []SampleRate{
	SampleRate22050,
	SampleRate24000,
	SampleRate32000,
	SampleRate44100,
	SampleRate48000,
	SampleRate88200,
	SampleRate96000,
	SampleRate192000,
}

// SampleRates lists the supported rates in ascending order.
func SampleRates() []SampleRate {
	return append([]SampleRate(nil), sampleRates...)
}

// ParseSampleRate converts a rate in Hz to a SampleRate.
func ParseSampleRate(hz int) (SampleRate, error) {
	sr := SampleRate(hz)
	if !sr.Valid() {
		return SampleRateUnknown, fmt.Errorf("%w: %d Hz", ErrInvalidSampleRate, hz)
	}
	return sr, nil
}

// Valid reports whether sr is one of the enumerated rates.
func (sr SampleRate) Valid() bool {
	for _, r := range sampleRates {
		if r == sr {
			return true
		}
	}
	return false
}

func (sr SampleRate) Hz() int { return int(sr) }

func (sr SampleRate) String() string {
	if sr == SampleRateUnknown {
		return "unknown"
	}
	return strconv.Itoa(int(sr)) + " Hz"
}
