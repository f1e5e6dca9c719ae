// SPDX-License-Identifier: EPL-2.0

package portaudio

import "errors"

var (
	ErrUnavailable   = errors.New("portaudio backend is not built in")
	ErrNoSuchDevice  = errors.New("no portaudio device with that name")
	ErrNotOpen       = errors.New("portaudio stream is not open")
	ErrTooFewOutputs = errors.New("portaudio device has too few channels")
)
