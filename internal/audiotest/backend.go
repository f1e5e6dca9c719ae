// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"sync"

	"github.com/ik5/psyaudio/playback"
	"github.com/ik5/psyaudio/timing"
)

var ErrNotOpen = errors.New("audiotest: backend is not open")

// ManualBackend is a playback.Backend whose callback is driven by the test
// through Tick.
type ManualBackend struct {
	// OpenErr and StartErr are returned by Open and Start when set.
	OpenErr  error
	StartErr error

	mu      sync.Mutex
	device  *playback.Device
	started bool
	opens   int
	closes  int
}

func (b *ManualBackend) DefaultName() string { return "manual" }

func (b *ManualBackend) Open(d *playback.Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OpenErr != nil {
		return b.OpenErr
	}
	b.device = d
	b.opens++
	return nil
}

func (b *ManualBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.StartErr != nil {
		return b.StartErr
	}
	b.started = true
	return nil
}

func (b *ManualBackend) Stop() error {
	b.mu.Lock()
	b.started = false
	b.mu.Unlock()
	return nil
}

func (b *ManualBackend) Close() error {
	b.mu.Lock()
	b.device = nil
	b.closes++
	b.mu.Unlock()
	return nil
}

func (b *ManualBackend) Started() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started
}

// Opens and Closes count the calls to Open and Close.
func (b *ManualBackend) Opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

func (b *ManualBackend) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}

// Tick runs the callback once for frames output frames that reach the DAC
// at tpOut, and returns the rendered samples.
func (b *ManualBackend) Tick(frames int, tpOut timing.TimePoint) ([]float32, error) {
	b.mu.Lock()
	d := b.device
	b.mu.Unlock()
	if d == nil {
		return nil, ErrNotOpen
	}

	out := make([]float32, frames*d.NumOutputChannels())
	var in []float32
	if n := d.NumInputChannels(); n > 0 {
		in = make([]float32, frames*n)
	}
	d.Render(out, in, tpOut, tpOut)
	return out, nil
}
