package audio

import (
	"fmt"
)

// ChannelBuffer accumulates deinterleaved samples for every channel of a
// session. It is owned by a single goroutine at a time.
type ChannelBuffer struct {
	format   Format
	channels [][]int32
}

// NewChannelBuffer creates an empty buffer for format. capacity is a hint
// for the expected number of samples per channel.
func NewChannelBuffer(format Format, capacity int) *ChannelBuffer {
	if capacity < 0 {
		capacity = 0
	}
	b := &ChannelBuffer{
		format:   format,
		channels: make([][]int32, format.Channels),
	}
	for c := range b.channels {
		b.channels[c] = make([]int32, 0, capacity)
	}
	return b
}

// Append adds one deinterleaved chunk. slices must hold one equally sized
// slice per channel.
func (b *ChannelBuffer) Append(slices [][]int32) error {
	if len(slices) != len(b.channels) {
		return fmt.Errorf("%w: got %d channel slices, buffer has %d channels",
			ErrFormat, len(slices), len(b.channels))
	}
	for c, s := range slices {
		if len(s) != len(slices[0]) {
			return fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrFormat, c, len(s), len(slices[0]))
		}
	}
	for c, s := range slices {
		b.channels[c] = append(b.channels[c], s...)
	}
	return nil
}

// Format returns the stream format the buffer was created for.
func (b *ChannelBuffer) Format() Format {
	return b.format
}

// Len returns the number of samples held per channel.
func (b *ChannelBuffer) Len() int {
	if len(b.channels) == 0 {
		return 0
	}
	return len(b.channels[0])
}

// NumChannels returns the channel count.
func (b *ChannelBuffer) NumChannels() int {
	return len(b.channels)
}

// Channel returns the samples of channel c. The slice is shared with the
// buffer and must not be modified.
func (b *ChannelBuffer) Channel(c int) []int32 {
	return b.channels[c]
}

// Channels returns every channel's samples, shared with the buffer.
func (b *ChannelBuffer) Channels() [][]int32 {
	return b.channels
}

// Interleaved returns the samples in device order.
func (b *ChannelBuffer) Interleaved() []int32 {
	out, _ := Interleave(b.channels) // Append keeps channel lengths equal
	return out
}

// Normalized returns channel c scaled to [-1.0, 1.0).
func (b *ChannelBuffer) Normalized(c int) []float64 {
	return Normalize(b.channels[c], b.format.BitDepth)
}

// Downmix averages all channels into a single [-1.0, 1.0) sequence.
func (b *ChannelBuffer) Downmix() []float64 {
	n := b.Len()
	out := make([]float64, n)
	if len(b.channels) == 0 {
		return out
	}

	inv := 1.0 / (FullScale(b.format.BitDepth) * float64(len(b.channels)))
	for i := range n {
		var sum float64
		for _, ch := range b.channels {
			sum += float64(ch[i])
		}
		out[i] = sum * inv
	}
	return out
}

// Normalize scales signed integer samples of the given bit depth to
// [-1.0, 1.0).
func Normalize(samples []int32, bitDepth int) []float64 {
	inv := 1.0 / FullScale(bitDepth)
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) * inv
	}
	return out
}
