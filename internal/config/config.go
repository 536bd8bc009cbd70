package config

import (
	"fmt"
	"time"
)

// Capture settings (ReSpeaker 4 Mic Array defaults)
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1 // 1 with the default firmware, 6 with the i6 firmware
	DefaultBitDepth   = 16
	DefaultChunkSize  = 1024
	DefaultDevice     = "1" // Input device index or name substring

	DefaultRecordSeconds = 10
)

// Analysis settings
const (
	DefaultMelBands  = 128
	DefaultHopLength = 512
	DefaultFFTSize   = 2048
	DefaultFloorDB   = -80.0
	DefaultWindow    = "hann"
)

// Pipeline settings
const (
	DefaultDropPolicy   = "block"
	DefaultRetryBackoff = 50 * time.Millisecond
)

// Output settings
const (
	DefaultWAVOutput = "output.wav"
	DefaultPNGOutput = "mel_spectrogram.png"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Capture describes one capture session. It is passed by value and never
// mutated once a source has been opened with it.
type Capture struct {
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	BitDepth   int    `yaml:"bit_depth"`
	ChunkSize  int    `yaml:"chunk_size"` // Sample-frames per read
	Device     string `yaml:"device"`
}

// BytesPerSample returns the width of one sample of one channel.
func (c Capture) BytesPerSample() int {
	return c.BitDepth / 8
}

// FrameBytes returns the byte length of one chunk read from the device.
func (c Capture) FrameBytes() int {
	return c.ChunkSize * c.Channels * c.BytesPerSample()
}

// ChunkDuration returns the wall-clock length of one chunk.
func (c Capture) ChunkDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.ChunkSize) * time.Second / time.Duration(c.SampleRate)
}

// ChunksFor returns how many chunks cover d. A trailing partial chunk counts
// as a whole one, so 2s at 16 kHz with 1024-frame chunks is 32 chunks.
func (c Capture) ChunksFor(d time.Duration) int {
	if c.ChunkSize <= 0 || d <= 0 {
		return 0
	}
	frames := int64(d) * int64(c.SampleRate)
	perChunk := int64(c.ChunkSize) * int64(time.Second)
	return int((frames + perChunk - 1) / perChunk)
}

// ChunksPerSecond returns the number of chunks that make up one second of
// audio, rounded up. Used as the default monitoring cadence.
func (c Capture) ChunksPerSecond() int {
	return c.ChunksFor(time.Second)
}

func (c Capture) String() string {
	return fmt.Sprintf("%dHz %dch %d-bit chunk=%d device=%q",
		c.SampleRate, c.Channels, c.BitDepth, c.ChunkSize, c.Device)
}

// Analysis holds mel spectrogram parameters.
type Analysis struct {
	MelBands  int     `yaml:"mel_bands"`
	HopLength int     `yaml:"hop_length"`
	FFTSize   int     `yaml:"fft_size"`
	FloorDB   float64 `yaml:"floor_db"`
	Window    string  `yaml:"window"` // hann, hamming or blackman
}

// Monitor holds live level monitoring settings.
type Monitor struct {
	// ChunksPerReading is how many chunks make up one level reading.
	// Zero means one reading per second of audio.
	ChunksPerReading int `yaml:"chunks_per_reading"`
	// Readings is how many readings the monitor command takes before
	// stopping. Zero means run until interrupted.
	Readings int `yaml:"readings"`
}

// Pipeline controls how capture and analysis are joined.
type Pipeline struct {
	// QueueSize > 0 runs capture and analysis on separate goroutines joined
	// by a bounded frame queue.
	QueueSize int `yaml:"queue_size"`
	// DropPolicy is "block" (backpressure on the capture goroutine) or
	// "drop" (discard the newest frame and count it).
	DropPolicy string `yaml:"drop_policy"`
	// RetryAttempts > 0 retries a faulted read that many times before the
	// session fails. Zero keeps stream faults fatal.
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// Log holds logger settings.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
	// File receives log output instead of stderr. The terminal UI owns
	// the screen, so without a file it silences logging.
	File string `yaml:"file"`
}

// Config is the root of the YAML configuration file.
type Config struct {
	Capture  Capture  `yaml:"capture"`
	Analysis Analysis `yaml:"analysis"`
	Monitor  Monitor  `yaml:"monitor"`
	Pipeline Pipeline `yaml:"pipeline"`
	Log      Log      `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Capture: Capture{
			SampleRate: DefaultSampleRate,
			Channels:   DefaultChannels,
			BitDepth:   DefaultBitDepth,
			ChunkSize:  DefaultChunkSize,
			Device:     DefaultDevice,
		},
		Analysis: Analysis{
			MelBands:  DefaultMelBands,
			HopLength: DefaultHopLength,
			FFTSize:   DefaultFFTSize,
			FloorDB:   DefaultFloorDB,
			Window:    DefaultWindow,
		},
		Pipeline: Pipeline{
			DropPolicy:   DefaultDropPolicy,
			RetryBackoff: DefaultRetryBackoff,
		},
		Log: Log{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
