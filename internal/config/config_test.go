package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestChunksFor verifies the chunk count rounds a trailing partial chunk up,
// so a capture never ends short of the requested duration.
func TestChunksFor(t *testing.T) {
	testCases := []struct {
		name     string
		capture  Capture
		duration time.Duration
		want     int
	}{
		{
			name:     "2s at 16kHz, 1024 chunk",
			capture:  Capture{SampleRate: 16000, ChunkSize: 1024},
			duration: 2 * time.Second,
			want:     32,
		},
		{
			name:     "10s at 16kHz, 1024 chunk",
			capture:  Capture{SampleRate: 16000, ChunkSize: 1024},
			duration: 10 * time.Second,
			want:     157,
		},
		{
			name:     "exact multiple",
			capture:  Capture{SampleRate: 16000, ChunkSize: 1000},
			duration: time.Second,
			want:     16,
		},
		{
			name:     "zero duration",
			capture:  Capture{SampleRate: 16000, ChunkSize: 1024},
			duration: 0,
			want:     0,
		},
		{
			name:     "zero chunk size",
			capture:  Capture{SampleRate: 16000, ChunkSize: 0},
			duration: time.Second,
			want:     0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.capture.ChunksFor(tc.duration)
			if got != tc.want {
				t.Errorf("ChunksFor(%s) = %d, want %d", tc.duration, got, tc.want)
			}
		})
	}
}

func TestFrameBytes(t *testing.T) {
	c := Capture{SampleRate: 16000, Channels: 6, BitDepth: 16, ChunkSize: 1024}
	if got := c.FrameBytes(); got != 1024*6*2 {
		t.Errorf("FrameBytes() = %d, want %d", got, 1024*6*2)
	}
	if got := c.BytesPerSample(); got != 2 {
		t.Errorf("BytesPerSample() = %d, want 2", got)
	}
	if got := c.ChunkDuration(); got != 64*time.Millisecond {
		t.Errorf("ChunkDuration() = %s, want 64ms", got)
	}
	if got := c.ChunksPerSecond(); got != 16 {
		t.Errorf("ChunksPerSecond() = %d, want 16", got)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
}

func TestLoadFromReader_OverridesDefaults(t *testing.T) {
	const doc = `
capture:
  channels: 6
  device: "ReSpeaker 4 Mic Array"
analysis:
  mel_bands: 64
pipeline:
  queue_size: 8
  drop_policy: drop
  retry_attempts: 2
  retry_backoff: 10ms
log:
  level: debug
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Capture.Channels != 6 {
		t.Errorf("Channels = %d, want 6", cfg.Capture.Channels)
	}
	if cfg.Capture.Device != "ReSpeaker 4 Mic Array" {
		t.Errorf("Device = %q", cfg.Capture.Device)
	}
	// Untouched keys keep their defaults
	if cfg.Capture.SampleRate != DefaultSampleRate {
		t.Errorf("SampleRate = %d, want default %d", cfg.Capture.SampleRate, DefaultSampleRate)
	}
	if cfg.Analysis.MelBands != 64 {
		t.Errorf("MelBands = %d, want 64", cfg.Analysis.MelBands)
	}
	if cfg.Analysis.FFTSize != DefaultFFTSize {
		t.Errorf("FFTSize = %d, want default %d", cfg.Analysis.FFTSize, DefaultFFTSize)
	}
	if cfg.Pipeline.RetryBackoff != 10*time.Millisecond {
		t.Errorf("RetryBackoff = %s, want 10ms", cfg.Pipeline.RetryBackoff)
	}
	if cfg.Pipeline.DropPolicy != "drop" {
		t.Errorf("DropPolicy = %q, want drop", cfg.Pipeline.DropPolicy)
	}
}

func TestLoadFromReader_Empty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader(empty): %v", err)
	}
	if cfg != Default() {
		t.Errorf("empty document should yield Default(), got %+v", cfg)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("capture:\n  sample_rat: 16000\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

// TestValidate_ReportsAllProblems verifies every invalid field is listed in
// the joined error rather than stopping at the first one.
func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Capture.ChunkSize = 0
	cfg.Capture.BitDepth = 12
	cfg.Analysis.FFTSize = 1000
	cfg.Analysis.Window = "triangle"
	cfg.Pipeline.DropPolicy = "maybe"
	cfg.Log.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}

	for _, want := range []string{
		"capture.chunk_size",
		"capture.bit_depth",
		"analysis.fft_size",
		"analysis.window",
		"pipeline.drop_policy",
		"log.level",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "melcap.yaml")
	if err := os.WriteFile(path, []byte("capture:\n  chunk_size: 512\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capture.ChunkSize != 512 {
		t.Errorf("ChunkSize = %d, want 512", cfg.Capture.ChunkSize)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
