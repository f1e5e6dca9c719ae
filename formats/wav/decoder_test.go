// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/psyaudio/audio"
)

// createWAVFile builds a canonical 44 byte header WAV in memory.
func createWAVFile(formatTag, sampleRate, channels, bitsPerSample int, data []byte) []byte {
	buf := new(bytes.Buffer)

	blockAlign := channels * bitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(formatTag))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

func pcm16(samples ...int16) []byte {
	buf := new(bytes.Buffer)
	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

func decode(t *testing.T, data []byte) audio.Source {
	t.Helper()

	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return src
}

func TestDecoder_Header(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		sampleRate int
		channels   int
		data       []byte
		frames     int64
	}{
		{"mono", 8000, 1, pcm16(0, 100, 200, -100, -200, 0), 6},
		{"stereo", 44100, 2, pcm16(100, 200, 300, 400, 500, 600), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := decode(t, createWAVFile(formatPCM, tt.sampleRate, tt.channels, 16, tt.data))
			if src.SampleRate() != tt.sampleRate {
				t.Errorf("SampleRate() = %d, want %d", src.SampleRate(), tt.sampleRate)
			}
			if src.Channels() != tt.channels {
				t.Errorf("Channels() = %d, want %d", src.Channels(), tt.channels)
			}
			l, ok := src.(audio.Lengther)
			if !ok {
				t.Fatal("source does not report its length")
			}
			if got := l.NumFrames(); got != tt.frames {
				t.Errorf("NumFrames() = %d, want %d", got, tt.frames)
			}
		})
	}
}

func TestDecoder_Rejects(t *testing.T) {
	t.Parallel()

	bad := new(bytes.Buffer)
	bad.WriteString("RIFF")
	binary.Write(bad, binary.LittleEndian, uint32(36))
	bad.WriteString("NOPE")

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"garbage", []byte("NOT A WAV FILE DATA"), ErrNotWavFile},
		{"truncated", []byte("RIFF\x00"), ErrNotWavFile},
		{"wrong form type", bad.Bytes(), ErrNotWavFile},
		{"float", createWAVFile(3, 8000, 1, 32, make([]byte, 8)), ErrOnlyPCMSupported},
		{"12 bit", createWAVFile(formatPCM, 8000, 1, 12, make([]byte, 6)), ErrUnsupportedBitDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecoder_NonSeekableReader(t *testing.T) {
	t.Parallel()

	data := createWAVFile(formatPCM, 16000, 1, 16, pcm16(1, 2, 3))
	src, err := Decoder{}.Decode(io.MultiReader(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 16000 {
		t.Errorf("SampleRate() = %d, want 16000", src.SampleRate())
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	src := decode(t, createWAVFile(formatPCM, 8000, 1, 16, pcm16(0, 16384, 32767, -16384, -32768)))

	dst := make([]float32, 5)
	n, err := src.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 5 {
		t.Fatalf("ReadSamples() n = %d, want 5", n)
	}

	want := []float32{0, 0.5, 1, -0.5, -1}
	for i := range n {
		if math.Abs(float64(dst[i]-want[i])) > 0.001 {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}

	if n, err := src.ReadSamples(dst); n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() after the data = %d, %v; want 0, EOF", n, err)
	}
	if n, err := src.ReadSamples(dst); n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() after EOF = %d, %v; want 0, EOF", n, err)
	}
}

func TestSource_ReadSamples_SmallBuffer(t *testing.T) {
	t.Parallel()

	src := decode(t, createWAVFile(formatPCM, 8000, 1, 16, pcm16(1, 2, 3, 4, 5, 6, 7)))

	total := 0
	dst := make([]float32, 3)
	for {
		n, err := src.ReadSamples(dst)
		total += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	if total != 7 {
		t.Errorf("read %d samples, want 7", total)
	}
}

func TestSource_ReadSamples_EmptyBuffer(t *testing.T) {
	t.Parallel()

	src := decode(t, createWAVFile(formatPCM, 8000, 1, 16, pcm16(100, 200, 300)))

	n, err := src.ReadSamples(nil)
	if n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = %d, %v; want 0, nil", n, err)
	}
}

func TestSource_EightBitIsUnsigned(t *testing.T) {
	t.Parallel()

	src := decode(t, createWAVFile(formatPCM, 8000, 1, 8, []byte{128, 255, 0, 192}))

	dst := make([]float32, 4)
	n, err := src.ReadSamples(dst)
	if err != nil || n != 4 {
		t.Fatalf("ReadSamples() = %d, %v", n, err)
	}
	want := []float32{0, 127.0 / 128, -1, 0.5}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bitDepth  int
		tolerance float64
	}{
		{8, 0.01},
		{16, 0.0001},
		{24, 0.000001},
		{32, 0.000001},
	}

	in := []float32{0, 0.5, -0.5, 0.25, 1, -1, 2, -2}
	want := []float32{0, 0.5, -0.5, 0.25, 1, -1, 1, -1}

	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "out.wav")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}

		w, err := NewWriter(f, 48000, 2, tt.bitDepth)
		if err != nil {
			t.Fatalf("NewWriter(%d bit) error = %v", tt.bitDepth, err)
		}
		if err := w.Write(in[:4]); err != nil {
			t.Fatal(err)
		}
		if err := w.Write(in[4:]); err != nil {
			t.Fatal(err)
		}
		if w.Frames() != 4 {
			t.Errorf("Frames() = %d, want 4", w.Frames())
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		if err := w.Write(in); !errors.Is(err, ErrWriterClosed) {
			t.Errorf("Write() after Close error = %v", err)
		}
		f.Close()

		f, err = os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		src, err := Decoder{}.Decode(f)
		if err != nil {
			f.Close()
			t.Fatalf("%d bit: Decode() error = %v", tt.bitDepth, err)
		}
		if src.SampleRate() != 48000 || src.Channels() != 2 {
			t.Errorf("%d bit: format = %d Hz, %d channels", tt.bitDepth, src.SampleRate(), src.Channels())
		}
		if got := src.(audio.Lengther).NumFrames(); got != 4 {
			t.Errorf("%d bit: NumFrames() = %d, want 4", tt.bitDepth, got)
		}

		got := make([]float32, 16)
		n, err := src.ReadSamples(got)
		f.Close()
		if err != nil || n != len(want) {
			t.Fatalf("%d bit: ReadSamples() = %d, %v", tt.bitDepth, n, err)
		}
		for i := range want {
			if math.Abs(float64(got[i]-want[i])) > tt.tolerance {
				t.Errorf("%d bit: sample %d = %v, want %v", tt.bitDepth, i, got[i], want[i])
			}
		}
	}
}

func TestWriter_Errors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := NewWriter(f, 48000, 2, 12); !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Errorf("NewWriter(12 bit) error = %v", err)
	}
	if _, err := NewWriter(f, 0, 2, 16); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("NewWriter(0 Hz) error = %v", err)
	}

	w, err := NewWriter(f, 48000, 2, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(make([]float32, 3)); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Write(3 samples) error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() on empty writer error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
