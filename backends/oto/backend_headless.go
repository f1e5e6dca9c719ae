// SPDX-License-Identifier: EPL-2.0

//go:build headless

package oto

import (
	"time"

	"github.com/ik5/psyaudio/playback"
)

// Backend fails to open in headless builds.
type Backend struct{}

type Option func(*Backend)

func WithPeriodFrames(int) Option           { return func(*Backend) {} }
func WithDriverBuffer(time.Duration) Option { return func(*Backend) {} }

func New(...Option) *Backend { return &Backend{} }

func (b *Backend) DefaultName() string         { return "oto" }
func (b *Backend) Open(*playback.Device) error { return ErrUnavailable }
func (b *Backend) Start() error                { return ErrNotOpen }
func (b *Backend) Stop() error                 { return nil }
func (b *Backend) Close() error                { return nil }
