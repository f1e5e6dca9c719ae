// SPDX-License-Identifier: EPL-2.0

package stimulus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ik5/psyaudio/audio"
	"github.com/ik5/psyaudio/formats"
)

// File plays a decoded audio file. Its length defaults to the length of the
// file when the decoder knows it. When the device runs at another rate the
// file is resampled: quality 0 uses the cubic audio.Resampler, 1 to 10 the
// windowed sinc resampler of github.com/oov/audio.
type File struct {
	mu       sync.Mutex
	path     string
	closer   io.Closer
	decoded  audio.Source
	out      audio.Source
	frames   *audio.FrameReader
	registry *audio.Registry
	quality  int
	downmix  bool
	closed   bool
}

type FileOption func(*File)

// WithRegistry picks decoders from r instead of formats.NewRegistry.
func WithRegistry(r *audio.Registry) FileOption { return func(f *File) { f.registry = r } }

// WithQuality sets the resampling quality, 0 to 10.
func WithQuality(q int) FileOption { return func(f *File) { f.quality = q } }

// WithDownmix averages all channels of the file into one.
func WithDownmix() FileOption { return func(f *File) { f.downmix = true } }

// OpenFile opens path and decodes it with the decoder registered for its
// extension. The file stays open until Close.
func OpenFile(path string, opts ...FileOption) (*File, error) {
	f := newFile(opts)
	if err := checkQuality(f.quality); err != nil {
		return nil, err
	}
	if f.registry == nil {
		f.registry = formats.NewRegistry()
	}

	dec, err := f.registry.ForPath(path)
	if err != nil {
		return nil, err
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stimulus file: %w", err)
	}
	src, err := dec.Decode(fd)
	if err != nil {
		_ = fd.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	f.path = path
	f.closer = fd
	f.setSource(src)
	return f, nil
}

// NewFile plays an already decoded source. Close closes src.
func NewFile(src audio.Source, opts ...FileOption) (*File, error) {
	f := newFile(opts)
	if err := checkQuality(f.quality); err != nil {
		return nil, err
	}
	if src.Channels() <= 0 || src.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidSampleRate, src.SampleRate(), src.Channels())
	}
	f.setSource(src)
	return f, nil
}

func newFile(opts []FileOption) *File {
	f := &File{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func checkQuality(q int) error {
	if q < 0 || q > 10 {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, q)
	}
	return nil
}

func (f *File) setSource(src audio.Source) {
	if f.downmix && src.Channels() > 1 {
		src = audio.NewDownmix(src)
	}
	f.decoded = src
	f.out = src
	f.frames = audio.NewFrameReader(src)
}

// Path returns the path given to OpenFile.
func (f *File) Path() string { return f.path }

func (f *File) NumChannels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decoded.Channels()
}

// SampleRate returns the rate the file is currently read at.
func (f *File) SampleRate() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.SampleRate()
}

// SetSampleRate puts a resampler in front of the decoder when hz differs
// from the rate of the file. Only the first Play may change the rate.
func (f *File) SetSampleRate(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, hz)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFileClosed
	}
	if f.out.SampleRate() == hz {
		return nil
	}
	if f.out != f.decoded {
		return fmt.Errorf("%w: file already resampled to %d Hz", ErrInvalidSampleRate, f.out.SampleRate())
	}

	if f.quality == 0 {
		f.out = audio.NewResampler(f.decoded, hz)
	} else {
		f.out = newSincResampler(f.decoded, hz, f.quality)
	}
	f.frames = audio.NewFrameReader(f.out)
	return nil
}

// NumFrames returns the length at the current rate, or -1 when the decoder
// cannot tell.
func (f *File) NumFrames() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.out.(audio.Lengther); ok {
		return l.NumFrames()
	}
	return -1
}

// Read decodes numFrames frames. It returns io.EOF with the last frames of
// the file.
func (f *File) Read(dst []float32, numFrames int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrFileClosed
	}
	ch := f.out.Channels()
	numFrames = min(numFrames, len(dst)/ch)
	if numFrames == 0 {
		return 0, nil
	}

	n, err := f.frames.ReadFrames(dst[:numFrames*ch])
	if err != nil {
		return n, err
	}
	if n < numFrames && f.frames.Done() {
		return n, io.EOF
	}
	return n, nil
}

// Close releases the decoder and the file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var errs []error
	if err := f.out.Close(); err != nil {
		errs = append(errs, err)
	}
	if f.closer != nil {
		if err := f.closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
