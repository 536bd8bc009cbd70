package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/capture"
	"github.com/linuxmatters/melcap/internal/config"
	"github.com/linuxmatters/melcap/internal/feature"
	"github.com/linuxmatters/melcap/internal/observe"
	"github.com/linuxmatters/melcap/internal/renderer"
)

// Analyze computes the mel spectrogram of mono samples in [-1, 1].
func Analyze(samples []float64, sampleRate int, a config.Analysis, opts ...Option) (*feature.Matrix, error) {
	o := newOptions(opts)

	extractor, err := feature.NewExtractor(feature.ParamsFrom(a, sampleRate))
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	start := time.Now()
	m := extractor.TransformWithProgress(samples, o.progress)
	o.sink.Emit(observe.Event{
		Kind:    observe.EventAnalysis,
		Total:   m.Frames,
		Elapsed: time.Since(start),
	})
	if m.Empty() {
		o.log.Warn("Recording shorter than one analysis window",
			zap.Int("samples", len(samples)),
			zap.Int("fft_size", a.FFTSize),
		)
	}
	return m, nil
}

// AnalyzeFile loads a WAV, MP3 or FLAC file, downmixes it to mono and
// computes its mel spectrogram.
func AnalyzeFile(path string, a config.Analysis, opts ...Option) (*feature.Matrix, error) {
	samples, rate, err := audio.LoadMono(path)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	return Analyze(samples, rate, a, opts...)
}

// RunOptions names the artifacts Run produces.
type RunOptions struct {
	Duration time.Duration
	WAVPath  string // Empty skips the WAV file
	PNGPath  string // Empty skips the PNG export
	Title    string
}

// Result holds everything a Run produced.
type Result struct {
	Recording *Recording
	Matrix    *feature.Matrix
	WAVPath   string
	PNGPath   string
}

// Run records ro.Duration of audio from src, streams it to a WAV file,
// computes the mel spectrogram of the downmixed recording and exports it as
// a PNG.
func Run(ctx context.Context, src capture.Source, cfg config.Config, ro RunOptions, opts ...Option) (res *Result, err error) {
	res = &Result{}
	chunks := cfg.Capture.ChunksFor(ro.Duration)
	if chunks == 0 {
		return res, fmt.Errorf("run: duration %s is shorter than one chunk", ro.Duration)
	}

	if ro.WAVPath != "" {
		f, err := os.Create(ro.WAVPath)
		if err != nil {
			return res, fmt.Errorf("run: create %s: %w", ro.WAVPath, err)
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()

		w, err := audio.NewWAVWriter(f, formatOf(cfg.Capture))
		if err != nil {
			return res, fmt.Errorf("run: %w", err)
		}
		defer func() {
			err = errors.Join(err, w.Close())
		}()
		opts = append(opts, WithWAV(w))
		res.WAVPath = ro.WAVPath
	}

	rec, err := Record(ctx, src, cfg, chunks, opts...)
	res.Recording = rec
	if err != nil {
		return res, err
	}

	m, err := Analyze(rec.Buffer.Downmix(), cfg.Capture.SampleRate, cfg.Analysis, opts...)
	if err != nil {
		return res, err
	}
	res.Matrix = m

	if ro.PNGPath != "" {
		if err := renderer.SaveSpectrogramPNG(ro.PNGPath, m, renderer.Options{Title: ro.Title}); err != nil {
			return res, fmt.Errorf("run: %w", err)
		}
		res.PNGPath = ro.PNGPath
	}
	return res, nil
}
