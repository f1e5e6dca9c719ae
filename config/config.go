// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/ik5/psyaudio/audio"
	"github.com/ik5/psyaudio/playback"
	"github.com/ik5/psyaudio/timing"
)

// EnvPrefix prefixes the environment variables that override settings.
const EnvPrefix = "PSYAUDIO"

// Backends lists the accepted values of the backend key.
var Backends = []string{"null", "oto", "portaudio"}

type Config struct {
	LogLevel string        `mapstructure:"loglevel"`
	LogFile  string        `mapstructure:"logfile"`
	Backend  string        `mapstructure:"backend"`
	Device   DeviceConfig  `mapstructure:"device"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Trigger  TriggerConfig `mapstructure:"trigger"`
	Capture  CaptureConfig `mapstructure:"capture"`
}

type DeviceConfig struct {
	Name           string `mapstructure:"name"`
	SampleRate     int    `mapstructure:"samplerate"`
	OutputChannels int    `mapstructure:"outputchannels"`
	InputChannels  int    `mapstructure:"inputchannels"`
	// BufferDuration is in milliseconds.
	BufferDuration int `mapstructure:"bufferduration"`
}

type MetricsConfig struct {
	// Addr serves /metrics when not empty, for example ":9464".
	Addr string `mapstructure:"addr"`
}

type TriggerConfig struct {
	// Port is the parallel port number; -1 disables triggers.
	Port int `mapstructure:"port"`
	// PulseMs is the pulse length in milliseconds.
	PulseMs int `mapstructure:"pulsems"`
}

type CaptureConfig struct {
	// Wav records the rendered output of the null backend to this file.
	Wav      string `mapstructure:"wav"`
	BitDepth int    `mapstructure:"bitdepth"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("loglevel", "info")
	v.SetDefault("logfile", "")
	v.SetDefault("backend", "oto")
	v.SetDefault("device.name", "")
	v.SetDefault("device.samplerate", int(playback.DefaultSampleRate))
	v.SetDefault("device.outputchannels", playback.DefaultOutputChannels)
	v.SetDefault("device.inputchannels", 0)
	v.SetDefault("device.bufferduration", playback.DefaultBufferDuration.Ms())
	v.SetDefault("metrics.addr", "")
	v.SetDefault("trigger.port", -1)
	v.SetDefault("trigger.pulsems", 5)
	v.SetDefault("capture.wav", "")
	v.SetDefault("capture.bitdepth", 16)
}

// Load reads the settings from path on top of the defaults and applies
// environment overrides. A missing file is not an error. The result is
// validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: read %q: %w", path, err)
			}
			slog.Info("no config file found, using defaults", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns all problems of c joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if _, _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("loglevel: %w", err))
	}
	if !slices.Contains(Backends, c.Backend) {
		errs = append(errs, fmt.Errorf("backend %q is invalid; valid values: %s", c.Backend, strings.Join(Backends, ", ")))
	}
	if !audio.SampleRate(c.Device.SampleRate).Valid() {
		errs = append(errs, fmt.Errorf("device.samplerate: %w: %d", playback.ErrInvalidSampleRate, c.Device.SampleRate))
	}
	if c.Device.OutputChannels <= 0 {
		errs = append(errs, fmt.Errorf("device.outputchannels: %w: %d", playback.ErrInvalidChannels, c.Device.OutputChannels))
	}
	if c.Device.InputChannels < 0 {
		errs = append(errs, fmt.Errorf("device.inputchannels: %w: %d", playback.ErrInvalidChannels, c.Device.InputChannels))
	}
	if c.Device.BufferDuration <= 0 {
		errs = append(errs, fmt.Errorf("device.bufferduration: %w: %d ms", playback.ErrInvalidBufferDuration, c.Device.BufferDuration))
	}
	if c.Trigger.Port < -1 {
		errs = append(errs, fmt.Errorf("trigger.port %d is invalid; use -1 to disable triggers", c.Trigger.Port))
	}
	if c.Trigger.PulseMs <= 0 {
		errs = append(errs, fmt.Errorf("trigger.pulsems must be positive, got %d", c.Trigger.PulseMs))
	}
	if c.Capture.Wav != "" {
		if c.Backend != "null" {
			errs = append(errs, fmt.Errorf("capture.wav needs the null backend, not %q", c.Backend))
		}
		if !slices.Contains([]int{8, 16, 24, 32}, c.Capture.BitDepth) {
			errs = append(errs, fmt.Errorf("capture.bitdepth %d is invalid; valid values: 8, 16, 24, 32", c.Capture.BitDepth))
		}
	}
	return errors.Join(errs...)
}

// DeviceOptions turns the device settings into playback options.
func (c *Config) DeviceOptions() []playback.Option {
	return []playback.Option{
		playback.WithName(c.Device.Name),
		playback.WithSampleRate(audio.SampleRate(c.Device.SampleRate)),
		playback.WithOutputChannels(c.Device.OutputChannels),
		playback.WithInputChannels(c.Device.InputChannels),
		playback.WithBufferDuration(timing.NewDurationUs(int64(c.Device.BufferDuration) * 1000)),
	}
}
