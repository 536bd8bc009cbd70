package feature

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"
)

var windows = map[string]func(int) []float64{
	"hann":     window.Hann,
	"hamming":  window.Hamming,
	"blackman": window.Blackman,
}

// Window returns the periodic form of the named window, as used for
// spectral analysis: the symmetric window of size+1 points with the last
// point dropped.
func Window(name string, size int) ([]float64, error) {
	fn, ok := windows[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown window %q", ErrInvalidParams, name)
	}
	if size < 1 {
		return nil, fmt.Errorf("%w: window size %d", ErrInvalidParams, size)
	}
	return fn(size + 1)[:size], nil
}
