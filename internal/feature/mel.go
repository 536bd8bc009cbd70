package feature

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melLinearStep = 200.0 / 3
	melBreakHz    = 1000.0
	melBreak      = melBreakHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27.0

// HzToMel converts a frequency to the Slaney mel scale.
func HzToMel(hz float64) float64 {
	if hz < melBreakHz {
		return hz / melLinearStep
	}
	return melBreak + math.Log(hz/melBreakHz)/melLogStep
}

// MelToHz is the inverse of HzToMel.
func MelToHz(mel float64) float64 {
	if mel < melBreak {
		return mel * melLinearStep
	}
	return melBreakHz * math.Exp(melLogStep*(mel-melBreak))
}

// melEdges returns bands+2 frequencies evenly spaced in mel from 0 Hz to
// Nyquist. Filter b rises from edges[b], peaks at edges[b+1] and falls to
// edges[b+2].
func melEdges(bands, sampleRate int) []float64 {
	top := HzToMel(float64(sampleRate) / 2)
	edges := make([]float64, bands+2)
	for i := range edges {
		edges[i] = MelToHz(top * float64(i) / float64(bands+1))
	}
	return edges
}

// MelFilterbank returns bands triangular filters over the fftSize/2+1 bins
// of a real FFT. Each filter is scaled by 2/(upper-lower) so that it has
// constant area, matching librosa's "slaney" normalisation.
func MelFilterbank(bands, fftSize, sampleRate int) [][]float64 {
	bins := fftSize/2 + 1
	edges := melEdges(bands, sampleRate)

	binHz := make([]float64, bins)
	for k := range binHz {
		binHz[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}

	fb := make([][]float64, bands)
	for b := range fb {
		lower, center, upper := edges[b], edges[b+1], edges[b+2]
		norm := 2 / (upper - lower)

		weights := make([]float64, bins)
		for k, f := range binHz {
			up := (f - lower) / (center - lower)
			down := (upper - f) / (upper - center)
			if w := math.Min(up, down); w > 0 {
				weights[k] = w * norm
			}
		}
		fb[b] = weights
	}
	return fb
}

// BandCenters returns the peak frequency of each mel filter.
func BandCenters(bands, sampleRate int) []float64 {
	edges := melEdges(bands, sampleRate)
	return edges[1 : bands+1]
}
