package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

var (
	validBitDepths   = []int{16, 24, 32}
	validWindows     = []string{"hann", "hamming", "blackman"}
	validPolicies    = []string{"block", "drop"}
	validLogLevels   = []string{"debug", "info", "warn", "error"}
	validLogFormats  = []string{"console", "json"}
	maxChannelsLimit = 32
)

// Load reads the YAML file at path on top of [Default] and validates it.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r on top of [Default] and validates the
// result. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that cfg is coherent. It returns a joined error listing
// every problem found.
func Validate(cfg Config) error {
	var errs []error

	if err := cfg.Capture.Validate(); err != nil {
		errs = append(errs, err)
	}

	a := cfg.Analysis
	if a.MelBands <= 0 {
		errs = append(errs, fmt.Errorf("analysis.mel_bands must be > 0, got %d", a.MelBands))
	}
	if a.HopLength <= 0 {
		errs = append(errs, fmt.Errorf("analysis.hop_length must be > 0, got %d", a.HopLength))
	}
	if a.FFTSize <= 0 || a.FFTSize&(a.FFTSize-1) != 0 {
		errs = append(errs, fmt.Errorf("analysis.fft_size must be a power of two, got %d", a.FFTSize))
	}
	if a.FloorDB >= 0 {
		errs = append(errs, fmt.Errorf("analysis.floor_db must be negative, got %g", a.FloorDB))
	}
	if !slices.Contains(validWindows, a.Window) {
		errs = append(errs, fmt.Errorf("analysis.window %q is invalid; valid values: %v", a.Window, validWindows))
	}

	if cfg.Monitor.ChunksPerReading < 0 {
		errs = append(errs, fmt.Errorf("monitor.chunks_per_reading must be >= 0, got %d", cfg.Monitor.ChunksPerReading))
	}
	if cfg.Monitor.Readings < 0 {
		errs = append(errs, fmt.Errorf("monitor.readings must be >= 0, got %d", cfg.Monitor.Readings))
	}

	p := cfg.Pipeline
	if p.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("pipeline.queue_size must be >= 0, got %d", p.QueueSize))
	}
	if !slices.Contains(validPolicies, p.DropPolicy) {
		errs = append(errs, fmt.Errorf("pipeline.drop_policy %q is invalid; valid values: %v", p.DropPolicy, validPolicies))
	}
	if p.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("pipeline.retry_attempts must be >= 0, got %d", p.RetryAttempts))
	}
	if p.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("pipeline.retry_backoff must be >= 0, got %s", p.RetryBackoff))
	}

	if !slices.Contains(validLogLevels, cfg.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: %v", cfg.Log.Level, validLogLevels))
	}
	if !slices.Contains(validLogFormats, cfg.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format %q is invalid; valid values: %v", cfg.Log.Format, validLogFormats))
	}

	return errors.Join(errs...)
}

// Validate checks the capture settings on their own. Sources call it before
// touching any hardware.
func (c Capture) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("capture.sample_rate must be > 0, got %d", c.SampleRate))
	}
	if c.Channels < 1 || c.Channels > maxChannelsLimit {
		errs = append(errs, fmt.Errorf("capture.channels must be between 1 and %d, got %d", maxChannelsLimit, c.Channels))
	}
	if !slices.Contains(validBitDepths, c.BitDepth) {
		errs = append(errs, fmt.Errorf("capture.bit_depth %d is invalid; valid values: %v", c.BitDepth, validBitDepths))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("capture.chunk_size must be > 0, got %d", c.ChunkSize))
	}
	return errors.Join(errs...)
}
