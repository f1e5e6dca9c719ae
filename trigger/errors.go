// SPDX-License-Identifier: EPL-2.0

package trigger

import "errors"

var (
	ErrUnsupported = errors.New("parallel ports are not supported on this platform")
	ErrBusy        = errors.New("a trigger write is in progress")
	ErrPortClosed  = errors.New("parallel port is not open")
	ErrInvalidPort = errors.New("invalid parallel port number")
)
