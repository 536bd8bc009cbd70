package capture

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/melcap/internal/audio"
)

func writeTestWAV(t *testing.T, frames, channels int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replay.wav")
	samples := make([]int32, frames*channels)
	for i := range samples {
		samples[i] = int32(i%2000) - 1000
		if samples[i] == 0 {
			samples[i] = 1
		}
	}
	format := audio.Format{SampleRate: 16000, Channels: channels, BitDepth: 16}
	if err := audio.WriteWAVFile(path, format, samples); err != nil {
		t.Fatalf("WriteWAVFile: %v", err)
	}
	return path
}

// TestReplay_PadsLastChunk replays 2500 frames in 1024-frame chunks: two full
// chunks, one chunk of 452 real frames padded with zeros, then io.EOF.
func TestReplay_PadsLastChunk(t *testing.T) {
	path := writeTestWAV(t, 2500, 2)
	r := NewReplay(path)

	var frames []audio.Frame
	err := With(r, testCapture(2), func(src Source) error {
		for {
			frame, err := src.ReadChunk()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			frames = append(frames, frame)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(frames) != 3 {
		t.Fatalf("got %d chunks, want 3", len(frames))
	}
	last := frames[2]
	if last.NumFrames() != 1024 {
		t.Errorf("last chunk has %d frames, want 1024", last.NumFrames())
	}

	samples, err := audio.DecodePCM(last.Data, 16)
	if err != nil {
		t.Fatal(err)
	}
	filled := (2500 - 2048) * 2
	for i := 0; i < filled; i++ {
		if samples[i] == 0 {
			t.Fatalf("sample %d of the last chunk is zero, expected file data", i)
		}
	}
	for i := filled; i < len(samples); i++ {
		if samples[i] != 0 {
			t.Fatalf("padding sample %d = %d, want 0", i, samples[i])
		}
	}
}

func TestReplay_FormatChecks(t *testing.T) {
	path := writeTestWAV(t, 100, 2)

	cfg := testCapture(6)
	if err := NewReplay(path).Open(cfg); !errors.Is(err, audio.ErrChannelMismatch) {
		t.Errorf("more channels than file: expected ErrChannelMismatch, got %v", err)
	}

	cfg = testCapture(2)
	cfg.SampleRate = 48000
	if err := NewReplay(path).Open(cfg); !errors.Is(err, audio.ErrFormat) {
		t.Errorf("sample rate mismatch: expected ErrFormat, got %v", err)
	}

	if err := NewReplay(filepath.Join(t.TempDir(), "missing.wav")).Open(testCapture(2)); !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Errorf("missing file: expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	path := writeTestWAV(t, 100, 2)

	format, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	want := audio.Format{SampleRate: 16000, Channels: 2, BitDepth: 16}
	if format != want {
		t.Errorf("Probe() = %+v, want %+v", format, want)
	}

	if _, err := Probe(filepath.Join(t.TempDir(), "missing.wav")); !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Errorf("missing file: expected ErrDeviceUnavailable, got %v", err)
	}
}
