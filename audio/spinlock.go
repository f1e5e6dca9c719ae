// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"runtime"
	"sync/atomic"
)

// spinLock is a test-and-set lock for critical sections that only copy a
// bounded number of samples. It never parks the calling thread in the kernel,
// so it may be taken from a hardware audio callback.
type spinLock struct {
	state atomic.Int32
}

const spinsBeforeYield = 64

func (l *spinLock) Lock() {
	for spins := 0; !l.state.CompareAndSwap(0, 1); spins++ {
		if spins >= spinsBeforeYield {
			runtime.Gosched()
			spins = 0
		}
	}
}

func (l *spinLock) Unlock() {
	l.state.Store(0)
}
