// SPDX-License-Identifier: EPL-2.0

package stimulus

import "errors"

var (
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidVolume     = errors.New("volume must be within [0, 1]")
	ErrUnknownForm       = errors.New("unknown wave form")
	ErrInvalidQuality    = errors.New("resampling quality must be within [0, 10]")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrFileClosed        = errors.New("file stimulus closed")
)
