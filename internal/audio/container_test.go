package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// TestWAVWriter_RoundTrip writes captured frames through the container and
// reads them back, checking the header fields and that sample order is the
// device order.
func TestWAVWriter_RoundTrip(t *testing.T) {
	format := Format{SampleRate: 16000, Channels: 6, BitDepth: 16}
	path := filepath.Join(t.TempDir(), "capture.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewWAVWriter(f, format)
	if err != nil {
		t.Fatalf("NewWAVWriter: %v", err)
	}

	var want []int32
	for chunk := range 4 {
		samples := make([]int32, 128*format.Channels)
		for i := range samples {
			samples[i] = int32((chunk*1000 + i) % 30000)
		}
		want = append(want, samples...)

		data, err := EncodePCM(samples, format.BitDepth)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.WriteFrame(Frame{Data: data, Format: format, Index: chunk}); err != nil {
			t.Fatalf("WriteFrame(%d): %v", chunk, err)
		}
	}
	if w.Frames() != 4*128 {
		t.Errorf("Frames() = %d, want %d", w.Frames(), 4*128)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	rec, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if rec.Format != format {
		t.Errorf("Format = %+v, want %+v", rec.Format, format)
	}
	if !slices.Equal(rec.Samples, want) {
		t.Errorf("samples differ after round trip (got %d, want %d)", len(rec.Samples), len(want))
	}
	if rec.NumFrames() != 4*128 {
		t.Errorf("NumFrames() = %d", rec.NumFrames())
	}

	buf, err := rec.ChannelBuffer()
	if err != nil {
		t.Fatalf("ChannelBuffer: %v", err)
	}
	if buf.NumChannels() != 6 || buf.Len() != 4*128 {
		t.Errorf("ChannelBuffer shape = %dx%d", buf.NumChannels(), buf.Len())
	}
}

func TestWAVWriter_FormatMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, err := NewWAVWriter(f, Format{SampleRate: 16000, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatal(err)
	}
	err = w.WriteFrame(Frame{Data: make([]byte, 8), Format: Format{SampleRate: 16000, Channels: 2, BitDepth: 16}})
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}

	if _, err := NewWAVWriter(f, Format{SampleRate: 16000, Channels: 1, BitDepth: 8}); !errors.Is(err, ErrFormat) {
		t.Errorf("8-bit writer: expected ErrFormat, got %v", err)
	}
}

func TestReadWAV_InvalidFile(t *testing.T) {
	if _, err := ReadWAV("nonexistent.wav"); err == nil {
		t.Error("Expected error for nonexistent file, got nil")
	}

	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not RIFF data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWAV(path); err == nil {
		t.Error("Expected error for invalid WAV, got nil")
	}
}

// TestLoadMono_WAV decodes a stereo file through the analysis decoder path
// and checks the downmix and sample rate.
func TestLoadMono_WAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	format := Format{SampleRate: 22050, Channels: 2, BitDepth: 16}

	const frames = 20000
	samples := make([]int32, frames*2)
	for i := 0; i < frames; i++ {
		samples[i*2] = 16384   // left: +0.5
		samples[i*2+1] = -8192 // right: -0.25
	}
	if err := WriteWAVFile(path, format, samples); err != nil {
		t.Fatalf("WriteWAVFile: %v", err)
	}

	mono, rate, err := LoadMono(path)
	if err != nil {
		t.Fatalf("LoadMono: %v", err)
	}
	if rate != 22050 {
		t.Errorf("sample rate = %d, want 22050", rate)
	}
	if len(mono) != frames {
		t.Fatalf("len = %d, want %d", len(mono), frames)
	}

	want := (16384.0/32768.0 - 8192.0/32768.0) / 2
	for i := 0; i < frames; i += 997 {
		if math.Abs(mono[i]-want) > 1e-6 {
			t.Fatalf("mono[%d] = %v, want %v", i, mono[i], want)
		}
	}
}

// writeUnsignedWAV writes a mono 8-bit PCM file. The container writer
// refuses 8-bit, so the RIFF header is assembled by hand.
func writeUnsignedWAV(t *testing.T, path string, rate int, data []byte) {
	t.Helper()
	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("RIFF")
	binary.Write(&b, le, uint32(36+len(data)))
	b.WriteString("WAVEfmt ")
	binary.Write(&b, le, uint32(16))
	binary.Write(&b, le, uint16(1)) // PCM
	binary.Write(&b, le, uint16(1)) // mono
	binary.Write(&b, le, uint32(rate))
	binary.Write(&b, le, uint32(rate)) // byte rate
	binary.Write(&b, le, uint16(1))    // block align
	binary.Write(&b, le, uint16(8))
	b.WriteString("data")
	binary.Write(&b, le, uint32(len(data)))
	b.Write(data)
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestLoadMono_UnsignedWAV checks that 8-bit files are re-centred so that
// the unsigned midpoint decodes as silence.
func TestLoadMono_UnsignedWAV(t *testing.T) {
	tests := []struct {
		name  string
		value byte
		want  float64
	}{
		{"silence", 128, 0},
		{"positive peak", 255, 127.0 / 128.0},
		{"negative peak", 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "u8.wav")
			writeUnsignedWAV(t, path, 8000, bytes.Repeat([]byte{tt.value}, 4000))

			mono, rate, err := LoadMono(path)
			if err != nil {
				t.Fatalf("LoadMono: %v", err)
			}
			if rate != 8000 {
				t.Errorf("sample rate = %d, want 8000", rate)
			}
			if len(mono) != 4000 {
				t.Fatalf("len = %d, want 4000", len(mono))
			}
			for i := 0; i < len(mono); i += 499 {
				if math.Abs(mono[i]-tt.want) > 1e-9 {
					t.Fatalf("mono[%d] = %v, want %v", i, mono[i], tt.want)
				}
			}
		})
	}
}

func TestReadWAV_RejectsUnsigned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u8.wav")
	writeUnsignedWAV(t, path, 8000, bytes.Repeat([]byte{128}, 100))

	if _, err := ReadWAV(path); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for 8-bit WAV, got %v", err)
	}
}

func TestOpenDecoder_UnsupportedExtension(t *testing.T) {
	if _, err := OpenDecoder("song.ogg"); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
	if _, _, err := LoadMono("missing.flac"); err == nil {
		t.Error("expected error for missing FLAC, got nil")
	}
}
