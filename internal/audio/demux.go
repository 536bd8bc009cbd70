package audio

import "fmt"

// Deinterleave decodes frame with its own bit depth and splits it into one
// sample slice per channel.
func Deinterleave(frame Frame, channels int) ([][]int32, error) {
	samples, err := DecodePCM(frame.Data, frame.Format.BitDepth)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", frame.Index, err)
	}
	out, err := DeinterleaveSamples(samples, channels)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", frame.Index, err)
	}
	return out, nil
}

// DeinterleaveSamples splits s0c0 s0c1 … s0cN-1 s1c0 … into N slices.
// Channel c receives every channels-th sample starting at offset c.
func DeinterleaveSamples(samples []int32, channels int) ([][]int32, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: channel count %d", ErrFormat, channels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples do not divide into %d channels (truncated frame)",
			ErrFormat, len(samples), channels)
	}

	n := len(samples) / channels
	out := make([][]int32, channels)
	for c := range channels {
		ch := make([]int32, n)
		for i := range n {
			ch[i] = samples[i*channels+c]
		}
		out[c] = ch
	}
	return out, nil
}

// Interleave is the inverse of DeinterleaveSamples. Every channel must hold
// the same number of samples.
func Interleave(channels [][]int32) ([]int32, error) {
	if len(channels) == 0 {
		return nil, nil
	}
	n := len(channels[0])
	for c, ch := range channels {
		if len(ch) != n {
			return nil, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrFormat, c, len(ch), n)
		}
	}

	numCh := len(channels)
	out := make([]int32, n*numCh)
	for c, ch := range channels {
		for i, s := range ch {
			out[i*numCh+c] = s
		}
	}
	return out, nil
}
