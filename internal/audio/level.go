package audio

import "math"

// Sample is any numeric sample representation RMS accepts.
type Sample interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int | ~float32 | ~float64
}

// RMS returns the root-mean-square of samples. Values are widened to
// float64 before squaring so wide integer samples cannot overflow. An empty
// slice has no signal and yields 0.
func RMS[S Sample](samples []S) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		v := float64(s)
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(len(samples)))
}

// ChannelLevels returns the RMS of every channel.
func ChannelLevels(channels [][]int32) []float64 {
	levels := make([]float64, len(channels))
	for c, ch := range channels {
		levels[c] = RMS(ch)
	}
	return levels
}

// LevelReading is one RMS value per channel for a monitoring interval.
type LevelReading struct {
	// Index is the zero-based reading number within the session.
	Index int

	// Levels holds the RMS of each channel in raw sample units.
	Levels []float64

	// Chunks is how many chunks were folded into this reading.
	Chunks int
}

// DBFS converts a raw RMS level to decibels relative to full scale for the
// given bit depth. Silence maps to -Inf. A bit depth of zero treats rms as
// already normalised to [0, 1].
func DBFS(rms float64, bitDepth int) float64 {
	return 20 * math.Log10(rms/FullScale(bitDepth))
}

// FullScale returns 2^(bitDepth-1), the magnitude of the most negative
// sample at that depth. It works for any depth from 1 to 64; zero or less
// gives 1.
func FullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		return 1
	}
	return float64(uint64(1) << (bitDepth - 1))
}
