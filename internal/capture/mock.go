package capture

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/config"
)

// Waveform returns the sample for one channel of one sample-frame. frame
// counts from the start of the stream.
type Waveform func(frame, channel int) int32

// Silence is all zeros.
func Silence() Waveform {
	return func(int, int) int32 { return 0 }
}

// Sine is the same tone on every channel.
func Sine(freq float64, amplitude int32, sampleRate int) Waveform {
	return func(frame, _ int) int32 {
		t := float64(frame) / float64(sampleRate)
		return int32(math.Round(float64(amplitude) * math.Sin(2*math.Pi*freq*t)))
	}
}

// Ramp encodes the channel and frame into each sample, so a misplaced sample
// is easy to spot after deinterleaving.
func Ramp() Waveform {
	return func(frame, channel int) int32 {
		return int32(channel*1000 + frame%1000)
	}
}

// Square gives channel c a full-cycle square wave of amplitude levels[c],
// which has an RMS of exactly levels[c]. Channels beyond len(levels) are
// silent.
func Square(levels ...int32) Waveform {
	return func(frame, channel int) int32 {
		if channel >= len(levels) {
			return 0
		}
		if frame%2 == 0 {
			return levels[channel]
		}
		return -levels[channel]
	}
}

// MockCalls counts how often each Source method was called.
type MockCalls struct {
	Open, Start, Read, Close int64
}

// Mock is a deterministic Source for tests and demos.
type Mock struct {
	// Name identifies the mock device for exclusive ownership.
	Name string
	Wave Waveform

	// MaxInputChannels makes Open fail with ErrChannelMismatch above this
	// count. Zero means unlimited.
	MaxInputChannels int

	// Chunks ends the stream with io.EOF after that many chunks. Zero means
	// endless.
	Chunks int

	// FaultAfter makes ReadChunk fail with ErrStreamFault once that many
	// chunks have been delivered. FaultCount limits the fault to that many
	// consecutive reads; zero means the stream stays faulted.
	FaultAfter int
	FaultCount int

	lifecycle
	frames int
	faults int

	opens, starts, reads, closes atomic.Int64
}

// NewMock returns a mock device producing wave.
func NewMock(name string, wave Waveform) *Mock {
	return &Mock{Name: name, Wave: wave}
}

func (m *Mock) Open(cfg config.Capture) error {
	m.opens.Add(1)

	if m.MaxInputChannels > 0 && cfg.Channels > m.MaxInputChannels {
		return fmt.Errorf("%w: mock %q has %d input channels, %d requested",
			audio.ErrChannelMismatch, m.Name, m.MaxInputChannels, cfg.Channels)
	}
	if err := m.open(cfg, "mock:"+m.Name); err != nil {
		return err
	}
	m.frames = 0
	m.faults = 0
	return nil
}

func (m *Mock) Start() error {
	m.starts.Add(1)
	return m.start()
}

func (m *Mock) ReadChunk() (audio.Frame, error) {
	m.reads.Add(1)

	if err := m.streaming(); err != nil {
		return audio.Frame{}, err
	}

	delivered := m.chunks
	if m.Chunks > 0 && delivered >= m.Chunks {
		return audio.Frame{}, io.EOF
	}
	if m.FaultAfter > 0 && delivered >= m.FaultAfter {
		if m.FaultCount == 0 || m.faults < m.FaultCount {
			m.faults++
			return audio.Frame{}, fmt.Errorf("%w: mock %q overrun after %d chunks",
				audio.ErrStreamFault, m.Name, delivered)
		}
	}

	wave := m.Wave
	if wave == nil {
		wave = Silence()
	}

	cfg := m.cfg
	samples := make([]int32, cfg.ChunkSize*cfg.Channels)
	for f := 0; f < cfg.ChunkSize; f++ {
		for c := 0; c < cfg.Channels; c++ {
			samples[f*cfg.Channels+c] = wave(m.frames+f, c)
		}
	}
	m.frames += cfg.ChunkSize

	data, err := audio.EncodePCM(samples, cfg.BitDepth)
	if err != nil {
		return audio.Frame{}, err
	}
	return m.frame(data), nil
}

func (m *Mock) Close() error {
	m.closes.Add(1)
	m.close()
	return nil
}

// Calls returns the method call counts so far.
func (m *Mock) Calls() MockCalls {
	return MockCalls{
		Open:  m.opens.Load(),
		Start: m.starts.Load(),
		Read:  m.reads.Load(),
		Close: m.closes.Load(),
	}
}
