// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize    = errors.New("dst size must be multiple of channels")
	ErrQueueCapacity     = errors.New("queue capacity out of range")
	ErrQueueFull         = errors.New("queue full")
	ErrQueueEmpty        = errors.New("queue empty")
	ErrInvalidChannels   = errors.New("invalid channel count")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrUnknownFormat     = errors.New("no decoder registered for format")
)
