package audio

import (
	"fmt"
	"time"
)

// Format describes the layout of a PCM stream.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// BytesPerSample returns the width of one sample of one channel.
func (f Format) BytesPerSample() int {
	return f.BitDepth / 8
}

// String returns a short description, e.g. "16000Hz 6ch 16-bit".
func (f Format) String() string {
	ch := "mono"
	if f.Channels == 2 {
		ch = "stereo"
	} else if f.Channels > 2 {
		ch = fmt.Sprintf("%dch", f.Channels)
	}
	return fmt.Sprintf("%dHz %s %d-bit", f.SampleRate, ch, f.BitDepth)
}

// Frame is one chunk of interleaved PCM as returned by a single device read.
// Data holds chunkSize × channels × bytesPerSample little-endian bytes.
type Frame struct {
	Data   []byte
	Format Format

	// Index is the zero-based sequence number of the chunk in its session.
	Index int

	// Timestamp is the offset of the first sample from stream start.
	Timestamp time.Duration
}

// NumFrames returns the number of sample-frames (one sample per channel)
// held in f.
func (f Frame) NumFrames() int {
	width := f.Format.BytesPerSample() * f.Format.Channels
	if width == 0 {
		return 0
	}
	return len(f.Data) / width
}
