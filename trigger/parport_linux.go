// SPDX-License-Identifier: EPL-2.0

//go:build linux && (386 || amd64 || arm || arm64 || riscv64 || loong64)

package trigger

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ppdev ioctl requests from <linux/ppdev.h>, encoded with the generic
// _IO/_IOR/_IOW layout of the architectures above.
const (
	ppSetMode  = 0x40047080 // _IOW('p', 0x80, int)
	ppWData    = 0x40017086 // _IOW('p', 0x86, unsigned char)
	ppClaim    = 0x0000708b // _IO('p', 0x8b)
	ppRelease  = 0x0000708c // _IO('p', 0x8c)
	ppDataDir  = 0x40047090 // _IOW('p', 0x90, int)
	ppGetMode  = 0x80047098 // _IOR('p', 0x98, int)
	modeCompat = 1 << 8     // IEEE1284_MODE_COMPAT
)

type parport struct {
	mu   sync.Mutex
	fd   int
	name string
}

// OpenParport claims /dev/parportN through ppdev and configures its data
// pins as outputs in compatibility mode.
func OpenParport(num int) (Port, error) {
	if num < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, num)
	}
	name := fmt.Sprintf("/dev/parport%d", num)

	fd, err := unix.Open(name, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := unix.IoctlSetInt(fd, ppClaim, 0); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("claim %s: %w", name, err)
	}

	p := &parport{fd: fd, name: name}
	if err := p.configure(); err != nil {
		return nil, errors.Join(fmt.Errorf("configure %s: %w", name, err), p.Close())
	}
	return p, nil
}

func (p *parport) configure() error {
	mode, err := unix.IoctlGetInt(p.fd, ppGetMode)
	if err != nil {
		return err
	}
	if int32(mode) != modeCompat {
		if err := unix.IoctlSetPointerInt(p.fd, ppSetMode, modeCompat); err != nil {
			return err
		}
	}
	// 0 selects forward, output, direction.
	return unix.IoctlSetPointerInt(p.fd, ppDataDir, 0)
}

func (p *parport) Name() string { return p.name }

func (p *parport) Write(mask byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fd < 0 {
		return ErrPortClosed
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(p.fd), ppWData, uintptr(unsafe.Pointer(&mask)))
	if errno != 0 {
		return errno
	}
	return nil
}

func (p *parport) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fd < 0 {
		return nil
	}
	relErr := unix.IoctlSetInt(p.fd, ppRelease, 0)
	closeErr := unix.Close(p.fd)
	p.fd = -1
	return errors.Join(relErr, closeErr)
}
