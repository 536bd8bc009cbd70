package observe

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger. format "json" gives the production
// encoder, "console" the human-readable development one. Output goes to
// paths when given, stderr otherwise.
func NewLogger(level, format string, paths ...string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	if len(paths) > 0 {
		cfg.OutputPaths = paths
		cfg.ErrorOutputPaths = paths
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	return cfg.Build()
}

// ZapSink logs events. Per-chunk events go to debug so a normal run only
// shows level readings and problems.
type ZapSink struct {
	log *zap.Logger
}

// NewZapSink returns a sink writing to log. A nil logger falls back to a
// production logger.
func NewZapSink(log *zap.Logger) *ZapSink {
	if log == nil {
		log, _ = zap.NewProduction()
	}
	return &ZapSink{log: log}
}

func (s *ZapSink) Emit(e Event) {
	switch e.Kind {
	case EventChunk:
		s.log.Debug("Chunk captured",
			zap.Int("chunk", e.Chunk),
			zap.Int("total", e.Total),
		)
	case EventLevel:
		fields := []zap.Field{
			zap.Int("reading", e.Reading.Index),
			zap.Int("chunks", e.Reading.Chunks),
		}
		for c, rms := range e.Reading.Levels {
			fields = append(fields, zap.Float64(fmt.Sprintf("ch%d", c), rms))
		}
		s.log.Info("Channel levels", fields...)
	case EventDrop:
		s.log.Warn("Frame dropped",
			zap.Int("chunk", e.Chunk),
			zap.Int("dropped_total", e.Dropped),
		)
	case EventFault:
		s.log.Error("Stream fault", zap.Int("chunk", e.Chunk), zap.Error(e.Err))
	case EventRetry:
		s.log.Warn("Retrying read",
			zap.Int("chunk", e.Chunk),
			zap.Int("attempt", e.Attempt),
			zap.Duration("backoff", e.Backoff),
			zap.Error(e.Err),
		)
	case EventAnalysis:
		s.log.Info("Spectrogram computed",
			zap.Int("frames", e.Total),
			zap.Duration("elapsed", e.Elapsed),
		)
	}
}
