// SPDX-License-Identifier: EPL-2.0

package timer

import "github.com/ik5/psyaudio/timing"

// entry is one armed Timer. gen identifies the arm it belongs to, so a
// fire that was already dispatched can be recognised as stale.
type entry struct {
	timer  *Timer
	fireAt timing.TimePoint
	gen    uint64
	seq    uint64
	index  int
}

// timerHeap implements [container/heap.Interface] as a min-heap on fire
// time, with FIFO tie-breaking on seq.
type timerHeap []*entry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if c := h[i].fireAt.Compare(h[j].fireAt); c != 0 {
		return c < 0
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

// Push appends x to the heap. Called by [container/heap.Push]; callers must
// not invoke this directly.
func (h *timerHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

// Pop removes and returns the last element. Called by [container/heap.Pop];
// callers must not invoke this directly.
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
