// SPDX-License-Identifier: EPL-2.0

//go:build portaudio

package portaudio

import (
	"errors"
	"fmt"
	"sync"

	pa "github.com/gordonklaus/portaudio"

	"github.com/ik5/psyaudio/playback"
)

// Backend opens one PortAudio stream per device. The device name selects
// the PortAudio device; the default name picks the default devices.
type Backend struct {
	framesPerBuffer int

	mu     sync.Mutex
	device *playback.Device
	stream *pa.Stream
	clock  streamClock
}

type Option func(*Backend)

// WithFramesPerBuffer fixes the callback size. The default lets PortAudio
// choose.
func WithFramesPerBuffer(n int) Option { return func(b *Backend) { b.framesPerBuffer = n } }

func New(opts ...Option) *Backend {
	b := &Backend{framesPerBuffer: pa.FramesPerBufferUnspecified}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) DefaultName() string { return "default" }

func (b *Backend) Open(d *playback.Device) error {
	if err := pa.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}

	params, err := b.parameters(d)
	if err != nil {
		_ = pa.Terminate()
		return err
	}
	stream, err := pa.OpenStream(params, b.callback)
	if err != nil {
		_ = pa.Terminate()
		return fmt.Errorf("portaudio open stream: %w", err)
	}

	b.mu.Lock()
	b.device = d
	b.stream = stream
	b.mu.Unlock()

	if info := stream.Info(); info != nil {
		d.Logger().Info("portaudio stream opened",
			"output device", params.Output.Device.Name,
			"output latency", info.OutputLatency,
			"input latency", info.InputLatency,
		)
	}
	return nil
}

func (b *Backend) parameters(d *playback.Device) (pa.StreamParameters, error) {
	out, in, err := findDevices(d.Name(), d.NumInputChannels() > 0)
	if err != nil {
		return pa.StreamParameters{}, err
	}
	if out.MaxOutputChannels < d.NumOutputChannels() {
		return pa.StreamParameters{}, fmt.Errorf("%w: %s has %d outputs, need %d",
			ErrTooFewOutputs, out.Name, out.MaxOutputChannels, d.NumOutputChannels())
	}
	if in != nil && in.MaxInputChannels < d.NumInputChannels() {
		return pa.StreamParameters{}, fmt.Errorf("%w: %s has %d inputs, need %d",
			ErrTooFewOutputs, in.Name, in.MaxInputChannels, d.NumInputChannels())
	}

	p := pa.LowLatencyParameters(in, out)
	p.Output.Channels = d.NumOutputChannels()
	if in != nil {
		p.Input.Channels = d.NumInputChannels()
	}
	p.SampleRate = float64(d.SampleRate().Hz())
	p.FramesPerBuffer = b.framesPerBuffer
	return p, nil
}

// findDevices looks up the output device called name, or the default
// devices for the default name.
func findDevices(name string, input bool) (out, in *pa.DeviceInfo, err error) {
	if name == "" || name == "default" {
		if out, err = pa.DefaultOutputDevice(); err != nil {
			return nil, nil, fmt.Errorf("portaudio default output: %w", err)
		}
		if input {
			if in, err = pa.DefaultInputDevice(); err != nil {
				return nil, nil, fmt.Errorf("portaudio default input: %w", err)
			}
		}
		return out, in, nil
	}

	devices, err := pa.Devices()
	if err != nil {
		return nil, nil, fmt.Errorf("portaudio devices: %w", err)
	}
	for _, dev := range devices {
		if dev.Name != name {
			continue
		}
		if dev.MaxOutputChannels > 0 && out == nil {
			out = dev
		}
		if input && dev.MaxInputChannels > 0 && in == nil {
			in = dev
		}
	}
	if out == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrNoSuchDevice, name)
	}
	return out, in, nil
}

func (b *Backend) callback(in, out []float32, ti pa.StreamCallbackTimeInfo) {
	b.device.Render(out, in,
		b.clock.toClock(ti.InputBufferAdcTime),
		b.clock.toClock(ti.OutputBufferDacTime),
	)
}

func (b *Backend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return ErrNotOpen
	}
	b.clock.sync(b.device.Clock().Now(), b.stream.Time())
	if err := b.stream.Start(); err != nil {
		return fmt.Errorf("portaudio start: %w", err)
	}
	return nil
}

func (b *Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return nil
	}
	if err := b.stream.Stop(); err != nil {
		return fmt.Errorf("portaudio stop: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return nil
	}
	err := b.stream.Close()
	b.stream = nil
	b.device = nil
	return errors.Join(err, pa.Terminate())
}
