// SPDX-License-Identifier: EPL-2.0

package psyaudio

import "errors"

var ErrNotRetained = errors.New("runtime is not retained")
