// SPDX-License-Identifier: EPL-2.0

package timer

import "errors"

var (
	ErrThreadStopped = errors.New("timer thread stopped")
)
