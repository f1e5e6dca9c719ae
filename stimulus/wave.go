// SPDX-License-Identifier: EPL-2.0

package stimulus

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
)

// Form selects the signal a Wave generates.
type Form int

const (
	FormSine Form = iota
	FormSquare
	FormSawtooth
	FormTriangle
	FormSilence
	FormWhiteNoise
	FormPinkNoise
)

var formNames = [...]string{
	FormSine:       "sine",
	FormSquare:     "square",
	FormSawtooth:   "sawtooth",
	FormTriangle:   "triangle",
	FormSilence:    "silence",
	FormWhiteNoise: "white-noise",
	FormPinkNoise:  "pink-noise",
}

func (f Form) String() string {
	if f >= 0 && int(f) < len(formNames) {
		return formNames[f]
	}
	return fmt.Sprintf("form(%d)", int(f))
}

// ParseForm accepts the names printed by Form.String, case insensitive.
func ParseForm(s string) (Form, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range formNames {
		if n == name {
			return Form(f), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownForm, s)
}

const (
	DefaultFrequency = 440.0
	DefaultVolume    = 0.5
)

// Wave generates a periodic signal or noise. It adopts the channel count and
// sample rate of the device it is played on, and writes the same value to
// every channel. The phase carries over from one read to the next.
type Wave struct {
	mu         sync.Mutex
	form       Form
	freq       float64
	volume     float64
	channels   int
	sampleRate int
	phase      float64 // radians
	rng        *rand.Rand
	pink       [7]float64
}

type WaveOption func(*Wave)

func WithForm(f Form) WaveOption { return func(w *Wave) { w.form = f } }

func WithFrequency(hz float64) WaveOption { return func(w *Wave) { w.freq = hz } }

func WithVolume(v float64) WaveOption { return func(w *Wave) { w.volume = v } }

// WithSeed makes the noise forms reproducible.
func WithSeed(seed uint64) WaveOption {
	return func(w *Wave) { w.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// NewWave returns a 440 Hz sine at volume 0.5 unless opts say otherwise.
// Out of range options are reported by the first Play.
func NewWave(opts ...WaveOption) *Wave {
	w := &Wave{
		form:   FormSine,
		freq:   DefaultFrequency,
		volume: DefaultVolume,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return w
}

func (w *Wave) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

func (w *Wave) SetForm(f Form) error {
	if f < 0 || int(f) >= len(formNames) {
		return fmt.Errorf("%w: %d", ErrUnknownForm, int(f))
	}
	w.mu.Lock()
	w.form = f
	w.mu.Unlock()
	return nil
}

func (w *Wave) Frequency() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.freq
}

// SetFrequency changes the frequency. Once the sample rate is known the
// frequency may not exceed half of it.
func (w *Wave) SetFrequency(hz float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := checkFrequency(hz, w.sampleRate); err != nil {
		return err
	}
	w.freq = hz
	return nil
}

func (w *Wave) Volume() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.volume
}

// SetVolume sets the peak amplitude. For noise it scales the uniform white
// noise the noise forms are built from.
func (w *Wave) SetVolume(v float64) error {
	if err := checkVolume(v); err != nil {
		return err
	}
	w.mu.Lock()
	w.volume = v
	w.mu.Unlock()
	return nil
}

func checkFrequency(hz float64, sampleRate int) error {
	if math.IsNaN(hz) || hz < 0 {
		return fmt.Errorf("%w: %v Hz", ErrInvalidFrequency, hz)
	}
	if sampleRate > 0 && hz > float64(sampleRate)/2 {
		return fmt.Errorf("%w: %v Hz is above half the sample rate of %d Hz", ErrInvalidFrequency, hz, sampleRate)
	}
	return nil
}

func checkVolume(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidVolume, v)
	}
	return nil
}

// NumChannels returns 0 until the wave is played.
func (w *Wave) NumChannels() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.channels
}

func (w *Wave) FlexibleChannels() bool { return true }

func (w *Wave) SetNumChannels(n int) {
	w.mu.Lock()
	w.channels = n
	w.mu.Unlock()
}

func (w *Wave) SampleRate() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sampleRate
}

// SetSampleRate validates the settings against the device rate.
func (w *Wave) SetSampleRate(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, hz)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := checkFrequency(w.freq, hz); err != nil {
		return err
	}
	if err := checkVolume(w.volume); err != nil {
		return err
	}
	if w.form < 0 || int(w.form) >= len(formNames) {
		return fmt.Errorf("%w: %d", ErrUnknownForm, int(w.form))
	}
	w.sampleRate = hz
	return nil
}

// Read generates numFrames frames. A wave never ends by itself, it is
// bounded by the duration of its stimulus.
func (w *Wave) Read(dst []float32, numFrames int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch := w.channels
	if ch <= 0 || w.sampleRate <= 0 {
		return 0, nil
	}
	numFrames = min(numFrames, len(dst)/ch)

	inc := w.freq * 2 * math.Pi / float64(w.sampleRate)
	for f := range numFrames {
		v := float32(w.volume * w.next())
		frame := dst[f*ch : (f+1)*ch]
		for c := range frame {
			frame[c] = v
		}
		w.phase += inc
		if w.phase >= 2*math.Pi {
			w.phase = math.Mod(w.phase, 2*math.Pi)
		}
	}
	return numFrames, nil
}

// next returns the value of the current sample in [-1, 1].
func (w *Wave) next() float64 {
	switch w.form {
	case FormSine:
		return math.Sin(w.phase)
	case FormSquare:
		if w.phase < math.Pi {
			return 1
		}
		return -1
	case FormSawtooth:
		return w.phase/math.Pi - 1
	case FormTriangle:
		return 2*math.Abs(2*(w.phase/(2*math.Pi))-1) - 1
	case FormWhiteNoise:
		return w.white()
	case FormPinkNoise:
		return w.pinkNoise()
	}
	return 0
}

func (w *Wave) white() float64 { return 2*w.rng.Float64() - 1 }

// pinkNoise filters white noise with Paul Kellet's refined -3 dB/octave
// filter.
func (w *Wave) pinkNoise() float64 {
	white := w.white()
	b := &w.pink
	b[0] = 0.99886*b[0] + white*0.0555179
	b[1] = 0.99332*b[1] + white*0.0750759
	b[2] = 0.96900*b[2] + white*0.1538520
	b[3] = 0.86650*b[3] + white*0.3104856
	b[4] = 0.55000*b[4] + white*0.5329522
	b[5] = -0.7616*b[5] - white*0.0168980
	pink := b[0] + b[1] + b[2] + b[3] + b[4] + b[5] + b[6] + white*0.5362
	b[6] = white * 0.115926
	return max(-1, min(1, pink*0.11))
}
