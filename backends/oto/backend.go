// SPDX-License-Identifier: EPL-2.0

//go:build !headless

package oto

import (
	"fmt"
	"sync"
	"time"

	ebitenoto "github.com/ebitengine/oto/v3"

	"github.com/ik5/psyaudio/playback"
	"github.com/ik5/psyaudio/timing"
)

// DefaultPeriodFrames is the size of the player buffer in frames.
const DefaultPeriodFrames = 512

var shared struct {
	mu         sync.Mutex
	ctx        *ebitenoto.Context
	sampleRate int
	channels   int
}

// sharedContext returns the process wide oto context, creating it on first
// use.
func sharedContext(sampleRate, channels int, buffer time.Duration) (*ebitenoto.Context, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.ctx != nil {
		if shared.sampleRate != sampleRate || shared.channels != channels {
			return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrContextMismatch, shared.sampleRate, shared.channels)
		}
		return shared.ctx, nil
	}

	ctx, ready, err := ebitenoto.NewContext(&ebitenoto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       ebitenoto.FormatFloat32LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready

	shared.ctx = ctx
	shared.sampleRate = sampleRate
	shared.channels = channels
	return ctx, nil
}

// Backend drives a device from an oto player.
type Backend struct {
	periodFrames int
	buffer       time.Duration

	mu     sync.Mutex
	player *ebitenoto.Player
}

type Option func(*Backend)

// WithPeriodFrames sets the player buffer size in frames.
func WithPeriodFrames(n int) Option { return func(b *Backend) { b.periodFrames = n } }

// WithDriverBuffer sets the buffer of the underlying driver. Zero keeps the
// driver default. It only has an effect on the first Open of the process.
func WithDriverBuffer(d time.Duration) Option { return func(b *Backend) { b.buffer = d } }

func New(opts ...Option) *Backend {
	b := &Backend{periodFrames: DefaultPeriodFrames}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) DefaultName() string { return "oto" }

func (b *Backend) Open(d *playback.Device) error {
	ch := d.NumOutputChannels()
	if ch < 1 || ch > 2 || d.NumInputChannels() > 0 {
		return fmt.Errorf("%w: %d out, %d in", ErrUnsupportedChannels, ch, d.NumInputChannels())
	}

	sr := d.SampleRate().Hz()
	ctx, err := sharedContext(sr, ch, b.buffer)
	if err != nil {
		return err
	}

	// Samples rendered now reach the DAC after the player buffer and the
	// driver buffer.
	latencyUs := int64(b.periodFrames)*1_000_000/int64(sr) + b.buffer.Microseconds()
	r := newRenderReader(d, timing.NewDurationUs(latencyUs), b.periodFrames)

	p := ctx.NewPlayer(r)
	p.SetBufferSize(b.periodFrames * ch * 4)

	b.mu.Lock()
	b.player = p
	b.mu.Unlock()
	return nil
}

func (b *Backend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player == nil {
		return ErrNotOpen
	}
	b.player.Play()
	return nil
}

func (b *Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player != nil {
		b.player.Pause()
	}
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player == nil {
		return nil
	}
	err := b.player.Close()
	b.player = nil
	if err != nil {
		return fmt.Errorf("oto player: %w", err)
	}
	return nil
}
