// Package pipeline joins a capture source to the demultiplexer, the level
// monitor, the WAV container and the spectrogram extractor.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/feature"
	"github.com/linuxmatters/melcap/internal/observe"
)

// Option configures Record, Monitor, Analyze and Run.
type Option func(*options)

type options struct {
	sink       observe.Sink
	log        *zap.Logger
	wav        *audio.WAVWriter
	levelEvery int
	progress   feature.ProgressCallback
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	o.sink = observe.Multi(observe.NewZapSink(o.log), o.sink)
	return o
}

// WithSink sends pipeline events to s. Repeated sinks all receive every
// event.
func WithSink(s observe.Sink) Option {
	return func(o *options) { o.sink = observe.Multi(o.sink, s) }
}

// WithLogger logs pipeline events to log.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithWAV writes every captured frame to w as it is consumed.
func WithWAV(w *audio.WAVWriter) Option {
	return func(o *options) { o.wav = w }
}

// WithLevels emits an EventLevel every n chunks while recording.
func WithLevels(n int) Option {
	return func(o *options) { o.levelEvery = n }
}

// WithProgress reports spectrogram progress per analysis frame.
func WithProgress(cb feature.ProgressCallback) Option {
	return func(o *options) { o.progress = cb }
}
