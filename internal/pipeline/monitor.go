package pipeline

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/capture"
	"github.com/linuxmatters/melcap/internal/config"
	"github.com/linuxmatters/melcap/internal/observe"
)

// levelMeter folds demultiplexed chunks into one LevelReading every n
// chunks.
type levelMeter struct {
	every   int
	pending [][]int32
	chunks  int
	next    int
}

func newLevelMeter(every int) *levelMeter {
	return &levelMeter{every: every}
}

func (m *levelMeter) add(chans [][]int32) (audio.LevelReading, bool) {
	if m.every <= 0 {
		return audio.LevelReading{}, false
	}
	if m.pending == nil {
		m.pending = make([][]int32, len(chans))
	}
	for c := range chans {
		m.pending[c] = append(m.pending[c], chans[c]...)
	}
	m.chunks++
	if m.chunks < m.every {
		return audio.LevelReading{}, false
	}

	reading := audio.LevelReading{
		Index:  m.next,
		Levels: audio.ChannelLevels(m.pending),
		Chunks: m.chunks,
	}
	m.next++
	m.chunks = 0
	for c := range m.pending {
		m.pending[c] = m.pending[c][:0]
	}
	return reading, true
}

// Monitor reads src and reports each channel's RMS level every
// cfg.Monitor.ChunksPerReading chunks (one second of audio when zero). It
// stops after cfg.Monitor.Readings readings, or when ctx is cancelled if
// that is zero. Samples are not kept.
func Monitor(ctx context.Context, src capture.Source, cfg config.Config, opts ...Option) ([]audio.LevelReading, error) {
	every := cfg.Monitor.ChunksPerReading
	if every <= 0 {
		every = cfg.Capture.ChunksPerSecond()
	}

	o := newOptions(opts)
	collector := &observe.Collector{}
	o.sink = observe.Multi(o.sink, observe.SinkFunc(func(e observe.Event) {
		if e.Kind == observe.EventLevel {
			collector.Emit(e)
		}
	}))

	s := &session{
		cfg:   cfg,
		opts:  o,
		total: cfg.Monitor.Readings * every,
		meter: newLevelMeter(every),
	}

	o.log.Info("Monitoring levels",
		zap.Stringer("capture", cfg.Capture),
		zap.Int("chunks_per_reading", every),
		zap.Int("readings", cfg.Monitor.Readings),
	)

	err := capture.With(src, cfg.Capture, func(src capture.Source) error {
		if cfg.Pipeline.QueueSize > 0 {
			return s.runQueued(ctx, src)
		}
		return s.runSync(ctx, src)
	})
	readings := collector.Readings()
	if err != nil {
		return readings, fmt.Errorf("monitor: %w", err)
	}
	return readings, nil
}

// ChannelProfile summarises one channel over a monitoring session.
type ChannelProfile struct {
	Peak float64 // Highest reading
	Mean float64 // Average of the readings
	Min  float64 // Lowest reading

	PeakDBFS float64
	MeanDBFS float64
}

// LevelProfile summarises a series of level readings.
type LevelProfile struct {
	Readings int
	Channels []ChannelProfile

	// Loudest is the channel with the highest mean level; Quietest the
	// lowest. A large spread between them usually means a dead capsule.
	Loudest  int
	Quietest int
}

// Summarize builds a LevelProfile. bitDepth is used for the dBFS figures.
func Summarize(readings []audio.LevelReading, bitDepth int) LevelProfile {
	profile := LevelProfile{Readings: len(readings)}
	if len(readings) == 0 {
		return profile
	}

	channels := len(readings[0].Levels)
	profile.Channels = make([]ChannelProfile, channels)
	for c := range profile.Channels {
		p := &profile.Channels[c]
		p.Min = math.Inf(1)
		var sum float64
		var counted int
		for _, r := range readings {
			if c >= len(r.Levels) {
				continue
			}
			v := r.Levels[c]
			sum += v
			counted++
			p.Peak = max(p.Peak, v)
			p.Min = min(p.Min, v)
		}
		// Short readings do not count towards a channel they lack
		if counted > 0 {
			p.Mean = sum / float64(counted)
		}
		p.PeakDBFS = audio.DBFS(p.Peak, bitDepth)
		p.MeanDBFS = audio.DBFS(p.Mean, bitDepth)

		if p.Mean > profile.Channels[profile.Loudest].Mean {
			profile.Loudest = c
		}
		if p.Mean < profile.Channels[profile.Quietest].Mean {
			profile.Quietest = c
		}
	}
	return profile
}
