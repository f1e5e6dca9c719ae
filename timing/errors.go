// SPDX-License-Identifier: EPL-2.0

package timing

import "errors"

var (
	ErrOverflow       = errors.New("timing: integer overflow")
	ErrDivideByZero   = errors.New("timing: division by zero")
	ErrNotRepresented = errors.New("timing: value is not a finite number")
)
