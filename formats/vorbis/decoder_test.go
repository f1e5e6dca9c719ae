// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// mockOggVorbisReader simulates oggvorbis.Reader: Read returns interleaved
// values, at most one packet of packet frames per call.
type mockOggVorbisReader struct {
	sampleRate int
	channels   int
	samples    []float32
	offset     int
	packet     int
	length     int64
	err        error
}

func (m *mockOggVorbisReader) SampleRate() int { return m.sampleRate }
func (m *mockOggVorbisReader) Channels() int   { return m.channels }
func (m *mockOggVorbisReader) Length() int64   { return m.length }

func (m *mockOggVorbisReader) Read(buf []float32) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}
	if len(buf)%m.channels != 0 {
		panic("read of a partial frame")
	}

	n := len(buf)
	if m.packet > 0 {
		n = min(n, m.packet*m.channels)
	}
	n = copy(buf[:n], m.samples[m.offset:])
	m.offset += n
	return n, nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("This is not Ogg Vorbis data")},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrNotVorbisFile) {
				t.Errorf("Decode() error = %v, want ErrNotVorbisFile", err)
			}
		})
	}
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		length int64
		want   int64
	}{
		{length: 48000, want: 48000},
		{length: 0, want: -1},
	}

	for _, tt := range tests {
		src := newSource(&mockOggVorbisReader{sampleRate: 48000, channels: 2, length: tt.length})
		if src.SampleRate() != 48000 || src.Channels() != 2 {
			t.Errorf("format = %d Hz, %d channels", src.SampleRate(), src.Channels())
		}
		if got := src.NumFrames(); got != tt.want {
			t.Errorf("NumFrames() with length %d = %d, want %d", tt.length, got, tt.want)
		}
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		samples  []float32
	}{
		{"mono", 1, []float32{0.1, 0.2, 0.3, 0.4, 0.5}},
		{"stereo", 2, []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}},
		{"5.1", 6, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newSource(&mockOggVorbisReader{
				sampleRate: 44100,
				channels:   tt.channels,
				samples:    tt.samples,
				packet:     1,
			})

			var got []float32
			// 7 is not a multiple of most channel counts
			dst := make([]float32, 7*tt.channels+1)
			for {
				n, err := src.ReadSamples(dst)
				if n%tt.channels != 0 {
					t.Fatalf("ReadSamples() returned %d values for %d channels", n, tt.channels)
				}
				got = append(got, dst[:n]...)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("ReadSamples() error = %v", err)
				}
			}

			if len(got) != len(tt.samples) {
				t.Fatalf("read %d values, want %d", len(got), len(tt.samples))
			}
			for i := range got {
				if got[i] != tt.samples[i] {
					t.Errorf("value %d = %v, want %v", i, got[i], tt.samples[i])
				}
			}
		})
	}
}

func TestSource_ReadSamples_ShortBuffer(t *testing.T) {
	t.Parallel()

	src := newSource(&mockOggVorbisReader{sampleRate: 44100, channels: 2, samples: []float32{1, 2}})

	if n, err := src.ReadSamples(make([]float32, 1)); n != 0 || err != nil {
		t.Errorf("ReadSamples(1 value) = %d, %v; want 0, nil", n, err)
	}
	if n, err := src.ReadSamples(nil); n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = %d, %v; want 0, nil", n, err)
	}
}

func TestSource_ReadSamples_Error(t *testing.T) {
	t.Parallel()

	errCorrupt := errors.New("corrupt page")
	src := newSource(&mockOggVorbisReader{sampleRate: 44100, channels: 1, err: errCorrupt})

	if _, err := src.ReadSamples(make([]float32, 8)); !errors.Is(err, errCorrupt) {
		t.Errorf("ReadSamples() error = %v, want %v", err, errCorrupt)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	samples := make([]float32, 1<<16)
	dst := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		src := newSource(&mockOggVorbisReader{sampleRate: 48000, channels: 2, samples: samples, packet: 1024})
		for {
			if _, err := src.ReadSamples(dst); err != nil {
				break
			}
		}
	}
}
