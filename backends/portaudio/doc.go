// SPDX-License-Identifier: EPL-2.0

// Package portaudio plays a playback.Device through PortAudio using
// github.com/gordonklaus/portaudio.
//
// The PortAudio stream callback is the hardware callback of the device. The
// DAC and ADC times PortAudio reports are moved onto the device clock with
// the offset between the clock and the stream time taken when the stream
// starts.
//
// The binding needs cgo and the PortAudio headers, so it is only built with
// the portaudio tag. Without it Open returns ErrUnavailable.
package portaudio
