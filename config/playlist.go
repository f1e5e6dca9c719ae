// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ik5/psyaudio/playback"
	"github.com/ik5/psyaudio/stimulus"
	"github.com/ik5/psyaudio/timing"
)

const (
	KindWave = "wave"
	KindFile = "file"
)

// Playlist is an ordered list of stimuli with onsets relative to the start
// of the run.
type Playlist struct {
	Stimuli []Entry `yaml:"stimuli"`
}

// Entry describes one stimulus. Wave entries use Form, Freq and Volume,
// file entries Path and Quality. Zero values of Form, Freq and Volume keep
// the defaults of stimulus.NewWave.
type Entry struct {
	Kind       string   `yaml:"kind"`
	Form       string   `yaml:"form"`
	Freq       float64  `yaml:"freq"`
	Volume     *float64 `yaml:"volume"`
	Path       string   `yaml:"path"`
	Quality    int      `yaml:"quality"`
	OnsetMs    int64    `yaml:"onset_ms"`
	DurationMs int64    `yaml:"duration_ms"`
	// TriggerMask is written to the parallel port at the onset. Zero sends
	// no trigger.
	TriggerMask uint8 `yaml:"trigger_mask"`
}

// LoadPlaylistFile reads a playlist from path. Relative file paths in it
// are resolved against the directory of path.
func LoadPlaylistFile(path string) (*Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("playlist: open %q: %w", path, err)
	}
	defer f.Close()

	pl, err := LoadPlaylist(f)
	if err != nil {
		return nil, fmt.Errorf("playlist: parse %q: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range pl.Stimuli {
		e := &pl.Stimuli[i]
		if e.Kind == KindFile && !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(dir, e.Path)
		}
	}
	return pl, nil
}

// LoadPlaylist decodes and validates a YAML playlist. Unknown keys are
// errors.
func LoadPlaylist(r io.Reader) (*Playlist, error) {
	pl := &Playlist{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(pl); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("playlist: decode yaml: %w", err)
	}
	if err := pl.Validate(); err != nil {
		return nil, err
	}
	return pl, nil
}

// Validate returns the problems of all entries joined into one error.
func (p *Playlist) Validate() error {
	if len(p.Stimuli) == 0 {
		return errors.New("playlist has no stimuli")
	}
	var errs []error
	for i, e := range p.Stimuli {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("stimuli[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Entry) Validate() error {
	var errs []error

	switch e.Kind {
	case KindWave:
		if _, err := stimulus.ParseForm(e.Form); e.Form != "" && err != nil {
			errs = append(errs, err)
		}
		if math.IsNaN(e.Freq) || e.Freq < 0 {
			errs = append(errs, fmt.Errorf("%w: %v Hz", stimulus.ErrInvalidFrequency, e.Freq))
		}
		if e.Volume != nil && (math.IsNaN(*e.Volume) || *e.Volume < 0 || *e.Volume > 1) {
			errs = append(errs, fmt.Errorf("%w: %v", stimulus.ErrInvalidVolume, *e.Volume))
		}
		if e.DurationMs <= 0 {
			errs = append(errs, errors.New("a wave needs a positive duration_ms"))
		}
	case KindFile:
		if e.Path == "" {
			errs = append(errs, errors.New("a file needs a path"))
		}
		if e.Quality < 0 || e.Quality > 10 {
			errs = append(errs, fmt.Errorf("%w: %d", stimulus.ErrInvalidQuality, e.Quality))
		}
		if e.DurationMs < 0 {
			errs = append(errs, fmt.Errorf("duration_ms %d is negative", e.DurationMs))
		}
	default:
		errs = append(errs, fmt.Errorf("kind %q is invalid; valid values: %s, %s", e.Kind, KindWave, KindFile))
	}
	if e.OnsetMs < 0 {
		errs = append(errs, fmt.Errorf("onset_ms %d is negative", e.OnsetMs))
	}
	return errors.Join(errs...)
}

// Onset returns the onset relative to the start of the run.
func (e *Entry) Onset() timing.Duration { return timing.NewDurationUs(e.OnsetMs * 1000) }

// Duration returns the playing time. ok is false when a file should play to
// its end.
func (e *Entry) Duration() (d timing.Duration, ok bool) {
	if e.DurationMs <= 0 {
		return timing.Duration{}, false
	}
	return timing.NewDurationUs(e.DurationMs * 1000), true
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewSource builds the stimulus source of e. The returned closer releases
// it and may be called more than once.
func (e *Entry) NewSource() (playback.StimulusSource, io.Closer, error) {
	switch e.Kind {
	case KindWave:
		opts := []stimulus.WaveOption{}
		if e.Form != "" {
			form, err := stimulus.ParseForm(e.Form)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, stimulus.WithForm(form))
		}
		if e.Freq > 0 {
			opts = append(opts, stimulus.WithFrequency(e.Freq))
		}
		if e.Volume != nil {
			opts = append(opts, stimulus.WithVolume(*e.Volume))
		}
		return stimulus.NewWave(opts...), nopCloser{}, nil
	case KindFile:
		f, err := stimulus.OpenFile(e.Path, stimulus.WithQuality(e.Quality))
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
	return nil, nil, fmt.Errorf("kind %q is invalid", e.Kind)
}
