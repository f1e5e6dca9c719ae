// SPDX-License-Identifier: EPL-2.0

package oto

import "errors"

var (
	ErrUnavailable         = errors.New("oto backend is not built in")
	ErrUnsupportedChannels = errors.New("oto plays one or two channels without input")
	ErrContextMismatch     = errors.New("oto context already runs with other settings")
	ErrNotOpen             = errors.New("oto backend is not open")
)
