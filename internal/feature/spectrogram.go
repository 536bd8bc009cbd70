// Package feature turns mono audio into a mel-scaled decibel spectrogram.
package feature

import (
	"errors"
	"fmt"
	"time"

	"github.com/argusdusty/gofft"

	"github.com/linuxmatters/melcap/internal/config"
)

// ErrInvalidParams is returned by NewExtractor for unusable parameters.
var ErrInvalidParams = errors.New("invalid spectrogram parameters")

// Params controls spectrogram extraction.
type Params struct {
	SampleRate int
	MelBands   int
	HopLength  int
	FFTSize    int // Window length and FFT size; must be a power of two
	Window     string
	FloorDB    float64
}

// DefaultParams returns the default analysis settings for sampleRate.
func DefaultParams(sampleRate int) Params {
	return ParamsFrom(config.Default().Analysis, sampleRate)
}

// ParamsFrom builds Params from the analysis section of the config file.
func ParamsFrom(a config.Analysis, sampleRate int) Params {
	return Params{
		SampleRate: sampleRate,
		MelBands:   a.MelBands,
		HopLength:  a.HopLength,
		FFTSize:    a.FFTSize,
		Window:     a.Window,
		FloorDB:    a.FloorDB,
	}
}

// Validate reports every unusable parameter.
func (p Params) Validate() error {
	var errs []error
	if p.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: sample rate %d", ErrInvalidParams, p.SampleRate))
	}
	if p.MelBands <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d mel bands", ErrInvalidParams, p.MelBands))
	}
	if p.HopLength <= 0 {
		errs = append(errs, fmt.Errorf("%w: hop length %d", ErrInvalidParams, p.HopLength))
	}
	if p.FFTSize < 2 || p.FFTSize&(p.FFTSize-1) != 0 {
		errs = append(errs, fmt.Errorf("%w: FFT size %d is not a power of two", ErrInvalidParams, p.FFTSize))
	}
	if p.FloorDB >= 0 {
		errs = append(errs, fmt.Errorf("%w: floor %g dB must be negative", ErrInvalidParams, p.FloorDB))
	}
	if _, ok := windows[p.Window]; !ok {
		errs = append(errs, fmt.Errorf("%w: unknown window %q", ErrInvalidParams, p.Window))
	}
	return errors.Join(errs...)
}

// NumFrames returns how many analysis frames fit in n samples. A frame is
// only taken where a full window fits, so n < FFTSize gives zero.
func (p Params) NumFrames(n int) int {
	if p.HopLength <= 0 || n < p.FFTSize {
		return 0
	}
	return (n-p.FFTSize)/p.HopLength + 1
}

// Matrix is a mel spectrogram in decibels, indexed [band][frame]. It is
// not modified after Transform returns it.
type Matrix struct {
	Bands  int
	Frames int
	Data   [][]float64

	SampleRate int
	HopLength  int
	FFTSize    int
	FloorDB    float64

	// BandHz is the centre frequency of each band.
	BandHz []float64
}

// Empty reports whether the input was too short for a single frame.
func (m *Matrix) Empty() bool {
	return m.Frames == 0
}

// Duration returns the span of audio the frames start in.
func (m *Matrix) Duration() time.Duration {
	return m.FrameTime(m.Frames)
}

// FrameTime returns the start of frame i from the start of the recording.
func (m *Matrix) FrameTime(i int) time.Duration {
	if m.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(i) * int64(m.HopLength) * int64(time.Second) / int64(m.SampleRate))
}

// Range returns the smallest and largest value in the matrix. An empty
// matrix reports the floor for both.
func (m *Matrix) Range() (lo, hi float64) {
	if m.Empty() {
		return m.FloorDB, m.FloorDB
	}
	lo, hi = m.Data[0][0], m.Data[0][0]
	for _, row := range m.Data {
		for _, v := range row {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}

// ProgressCallback is called after each analysis frame.
type ProgressCallback func(frame, totalFrames int)

// Extractor computes mel spectrograms for one set of Params. The window and
// filterbank are built once. An Extractor is safe for concurrent use.
type Extractor struct {
	params  Params
	window  []float64
	filters [][]float64
	centers []float64
}

// NewExtractor validates p and prepares the FFT, window and filterbank.
func NewExtractor(p Params) (*Extractor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := gofft.Prepare(p.FFTSize); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	win, err := Window(p.Window, p.FFTSize)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		params:  p,
		window:  win,
		filters: MelFilterbank(p.MelBands, p.FFTSize, p.SampleRate),
		centers: BandCenters(p.MelBands, p.SampleRate),
	}, nil
}

// Params returns the parameters the extractor was built with.
func (e *Extractor) Params() Params {
	return e.params
}

// Transform computes the decibel mel spectrogram of mono samples in [-1, 1].
// Input shorter than one FFT window yields an empty matrix with MelBands
// rows and no columns.
func (e *Extractor) Transform(samples []float64) *Matrix {
	return e.TransformWithProgress(samples, nil)
}

// TransformWithProgress is Transform with a per-frame progress callback.
func (e *Extractor) TransformWithProgress(samples []float64, progressCb ProgressCallback) *Matrix {
	p := e.params
	frames := p.NumFrames(len(samples))

	power := make([][]float64, p.MelBands)
	for b := range power {
		power[b] = make([]float64, frames)
	}

	bins := p.FFTSize/2 + 1
	spectrum := make([]float64, bins)
	buf := make([]complex128, p.FFTSize)

	for f := 0; f < frames; f++ {
		start := f * p.HopLength
		for i := range buf {
			buf[i] = complex(samples[start+i]*e.window[i], 0)
		}
		// Size is prepared and a power of two, so FFT cannot fail.
		_ = gofft.FFT(buf)

		for k := 0; k < bins; k++ {
			re, im := real(buf[k]), imag(buf[k])
			spectrum[k] = re*re + im*im
		}
		for b, weights := range e.filters {
			var sum float64
			for k, w := range weights {
				if w != 0 {
					sum += w * spectrum[k]
				}
			}
			power[b][f] = sum
		}

		if progressCb != nil {
			progressCb(f+1, frames)
		}
	}

	return &Matrix{
		Bands:      p.MelBands,
		Frames:     frames,
		Data:       PowerToDB(power, p.FloorDB),
		SampleRate: p.SampleRate,
		HopLength:  p.HopLength,
		FFTSize:    p.FFTSize,
		FloorDB:    p.FloorDB,
		BandHz:     e.centers,
	}
}

// Transform is a one-shot NewExtractor(p).Transform(samples).
func Transform(samples []float64, p Params) (*Matrix, error) {
	e, err := NewExtractor(p)
	if err != nil {
		return nil, err
	}
	return e.Transform(samples), nil
}
