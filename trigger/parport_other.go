// SPDX-License-Identifier: EPL-2.0

//go:build !linux || !(386 || amd64 || arm || arm64 || riscv64 || loong64)

package trigger

// OpenParport is only implemented on Linux.
func OpenParport(int) (Port, error) { return nil, ErrUnsupported }
