// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

// ErrNotMP3File wraps the error of the underlying decoder when no MP3 frame
// could be read.
var ErrNotMP3File = errors.New("not an MP3 stream")
