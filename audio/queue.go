// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"math"
	"math/bits"
)

// Queue is a fixed size ring of float32 samples shared by one producer and
// one consumer. Push and Pop are all or nothing: a request that does not fit
// leaves the queue untouched.
//
// The queue is guarded by a spin lock so it can be used from a real-time
// callback. Critical sections are a bounded copy.
type Queue struct {
	lock  spinLock
	buf   []float32
	mask  int
	read  int
	write int
	size  int
}

// NewQueue returns a queue whose capacity is capacityHint rounded up to the
// next power of two.
func NewQueue(capacityHint int) (*Queue, error) {
	if capacityHint <= 0 {
		return nil, fmt.Errorf("%w: hint %d", ErrQueueCapacity, capacityHint)
	}
	capacity := 1
	if capacityHint > 1 {
		shift := bits.Len(uint(capacityHint - 1))
		if shift > 31 {
			return nil, fmt.Errorf("%w: hint %d", ErrQueueCapacity, capacityHint)
		}
		capacity = 1 << shift
	}
	if capacity > math.MaxInt32 {
		return nil, fmt.Errorf("%w: hint %d", ErrQueueCapacity, capacityHint)
	}

	return &Queue{
		buf:  make([]float32, capacity),
		mask: capacity - 1,
	}, nil
}

// Capacity returns the number of samples the queue can hold.
func (q *Queue) Capacity() int { return len(q.buf) }

func (q *Queue) Size() int {
	q.lock.Lock()
	n := q.size
	q.lock.Unlock()
	return n
}

// Free returns the number of samples that can be pushed right now.
func (q *Queue) Free() int {
	q.lock.Lock()
	n := len(q.buf) - q.size
	q.lock.Unlock()
	return n
}

// Push appends all of samples or returns ErrQueueFull.
func (q *Queue) Push(samples []float32) error {
	n := len(samples)
	q.lock.Lock()
	defer q.lock.Unlock()

	if n > len(q.buf)-q.size {
		return ErrQueueFull
	}

	first := min(n, len(q.buf)-q.write)
	copy(q.buf[q.write:], samples[:first])
	copy(q.buf, samples[first:])
	q.write = (q.write + n) & q.mask
	q.size += n
	return nil
}

// Pop fills all of dst or returns ErrQueueEmpty.
func (q *Queue) Pop(dst []float32) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	if len(dst) > q.size {
		return ErrQueueEmpty
	}
	q.popLocked(dst)
	return nil
}

// PopAvailable pops up to len(dst) samples and returns how many were
// popped. It is meant for the hardware callback, which substitutes silence
// for the rest.
func (q *Queue) PopAvailable(dst []float32) int {
	q.lock.Lock()
	n := min(len(dst), q.size)
	q.popLocked(dst[:n])
	q.lock.Unlock()
	return n
}

func (q *Queue) popLocked(dst []float32) {
	n := len(dst)
	first := min(n, len(q.buf)-q.read)
	copy(dst[:first], q.buf[q.read:])
	copy(dst[first:], q.buf[:n-first])
	q.read = (q.read + n) & q.mask
	q.size -= n
}

// Clear drops all queued samples. Callers must make sure no push is in
// flight.
func (q *Queue) Clear() {
	q.lock.Lock()
	q.read, q.write, q.size = 0, 0, 0
	q.lock.Unlock()
}
