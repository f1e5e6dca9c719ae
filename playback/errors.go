// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"errors"

	"github.com/ik5/psyaudio/audio"
)

var (
	ErrDeviceOpen            = errors.New("device is open")
	ErrDeviceClosed          = errors.New("device is not open")
	ErrAlreadyScheduled      = errors.New("stimulus is already scheduled")
	ErrStimulusFinished      = errors.New("stimulus has finished")
	ErrNoClockReference      = errors.New("device has not run its callback yet")
	ErrUnbound               = errors.New("stimulus is not bound to a device")
	ErrInvalidBufferDuration = errors.New("invalid buffer duration")
	ErrInvalidDuration       = errors.New("invalid stimulus duration")

	ErrInvalidChannels   = audio.ErrInvalidChannels
	ErrInvalidSampleRate = audio.ErrInvalidSampleRate
)
