package observe

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/linuxmatters/melcap/internal/audio"
)

const meterName = "github.com/linuxmatters/melcap"

// Metrics holds the OpenTelemetry instruments for a capture session.
type Metrics struct {
	ChunksCaptured metric.Int64Counter
	FramesDropped  metric.Int64Counter
	StreamFaults   metric.Int64Counter
	Retries        metric.Int64Counter

	// ChannelLevel records each RMS reading in dBFS. Use with attribute:
	//   attribute.String("channel", ...)
	ChannelLevel metric.Float64Histogram

	// AnalysisDuration is the wall time of spectrogram extraction.
	AnalysisDuration metric.Float64Histogram
}

// Silent channels are recorded at this level instead of -Inf.
const minLevelDBFS = -120.0

var levelBuckets = []float64{-90, -80, -70, -60, -50, -40, -30, -20, -12, -6, -3, 0}

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// NewMetrics creates the instruments on mp. A nil mp uses the global
// provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ChunksCaptured, err = m.Int64Counter("melcap.chunks.captured",
		metric.WithDescription("Chunks read from the capture source."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("melcap.frames.dropped",
		metric.WithDescription("Chunks discarded by a full frame queue."),
	); err != nil {
		return nil, err
	}
	if met.StreamFaults, err = m.Int64Counter("melcap.stream.faults",
		metric.WithDescription("Reads that failed with a stream fault."),
	); err != nil {
		return nil, err
	}
	if met.Retries, err = m.Int64Counter("melcap.stream.retries",
		metric.WithDescription("Faulted reads that were retried."),
	); err != nil {
		return nil, err
	}
	if met.ChannelLevel, err = m.Float64Histogram("melcap.channel.level",
		metric.WithDescription("Per-channel RMS level."),
		metric.WithUnit("dBFS"),
		metric.WithExplicitBucketBoundaries(levelBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AnalysisDuration, err = m.Float64Histogram("melcap.analysis.duration",
		metric.WithDescription("Time spent computing the mel spectrogram."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// MetricsSink records events on a Metrics.
type MetricsSink struct {
	m   *Metrics
	ctx context.Context
}

// NewMetricsSink returns a sink feeding m.
func NewMetricsSink(m *Metrics) *MetricsSink {
	return &MetricsSink{m: m, ctx: context.Background()}
}

func (s *MetricsSink) Emit(e Event) {
	switch e.Kind {
	case EventChunk:
		s.m.ChunksCaptured.Add(s.ctx, 1)
	case EventDrop:
		s.m.FramesDropped.Add(s.ctx, 1)
	case EventFault:
		s.m.StreamFaults.Add(s.ctx, 1)
	case EventRetry:
		s.m.Retries.Add(s.ctx, 1)
	case EventLevel:
		for c, rms := range e.Reading.Levels {
			s.m.ChannelLevel.Record(s.ctx, max(audio.DBFS(rms, e.Format.BitDepth), minLevelDBFS),
				metric.WithAttributes(attribute.String("channel", strconv.Itoa(c))))
		}
	case EventAnalysis:
		s.m.AnalysisDuration.Record(s.ctx, e.Elapsed.Seconds())
	}
}
