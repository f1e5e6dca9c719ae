// SPDX-License-Identifier: EPL-2.0

package vorbis

import "errors"

// ErrNotVorbisFile wraps the error of the underlying reader when the input
// has no valid Ogg Vorbis headers.
var ErrNotVorbisFile = errors.New("not an Ogg Vorbis stream")
