// SPDX-License-Identifier: EPL-2.0

//go:build !portaudio

package portaudio

import "github.com/ik5/psyaudio/playback"

// Backend fails to open unless built with the portaudio tag.
type Backend struct{}

type Option func(*Backend)

func WithFramesPerBuffer(int) Option { return func(*Backend) {} }

func New(...Option) *Backend { return &Backend{} }

func (b *Backend) DefaultName() string         { return "default" }
func (b *Backend) Open(*playback.Device) error { return ErrUnavailable }
func (b *Backend) Start() error                { return ErrNotOpen }
func (b *Backend) Stop() error                 { return nil }
func (b *Backend) Close() error                { return nil }
