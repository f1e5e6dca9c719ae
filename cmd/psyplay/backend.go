// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ik5/psyaudio/backends/null"
	"github.com/ik5/psyaudio/backends/oto"
	"github.com/ik5/psyaudio/backends/portaudio"
	"github.com/ik5/psyaudio/config"
	"github.com/ik5/psyaudio/formats/wav"
	"github.com/ik5/psyaudio/playback"
)

// newBackend builds the backend named in cfg. The returned closer, when not
// nil, finishes the WAV capture of the null backend and must be called after
// the device is closed.
func newBackend(cfg *config.Config) (playback.Backend, io.Closer, error) {
	switch cfg.Backend {
	case "oto":
		return oto.New(), nil, nil
	case "portaudio":
		return portaudio.New(), nil, nil
	case "null":
		if cfg.Capture.Wav == "" {
			return null.New(), nil, nil
		}
		c, err := newCapture(cfg.Capture.Wav, cfg.Device.SampleRate, cfg.Device.OutputChannels, cfg.Capture.BitDepth)
		if err != nil {
			return nil, nil, err
		}
		return null.New(null.WithTap(c.write)), c, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// capture records everything the null backend renders.
type capture struct {
	path string
	f    *os.File
	w    *wav.Writer
}

func newCapture(path string, sampleRate, channels, bitDepth int) (*capture, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	w, err := wav.NewWriter(f, sampleRate, channels, bitDepth)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("capture: %w", err)
	}
	return &capture{path: path, f: f, w: w}, nil
}

func (c *capture) write(out []float32) {
	if err := c.w.Write(out); err != nil && !errors.Is(err, wav.ErrWriterClosed) {
		slog.Error("capture write failed", "path", c.path, "err", err)
	}
}

func (c *capture) Close() error {
	err := errors.Join(c.w.Close(), c.f.Close())
	if err == nil {
		slog.Info("capture written", "path", c.path, "frames", c.w.Frames())
	}
	return err
}
