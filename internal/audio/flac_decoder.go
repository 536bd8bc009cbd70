package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder reads a FLAC file for analysis. FLAC frames carry a variable
// block size, so samples beyond the requested chunk are held over.
type FLACDecoder struct {
	stream *flac.Stream
	file   *os.File
	format Format

	// Downmixed samples from the last frame not yet returned
	pending []float64
}

// NewFLACDecoder opens filename. The format comes from the STREAMINFO
// block.
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrFormat, filename, err)
	}

	return &FLACDecoder{
		stream: stream,
		file:   f,
		format: Format{
			SampleRate: int(stream.Info.SampleRate),
			Channels:   int(stream.Info.NChannels),
			BitDepth:   int(stream.Info.BitsPerSample),
		},
	}, nil
}

// ReadChunk returns up to numSamples mono samples.
func (d *FLACDecoder) ReadChunk(numSamples int) ([]float64, error) {
	samples := make([]float64, 0, numSamples)

	for len(samples) < numSamples {
		if len(d.pending) > 0 {
			n := min(numSamples-len(samples), len(d.pending))
			samples = append(samples, d.pending[:n]...)
			d.pending = d.pending[n:]
			continue
		}

		frame, err := d.stream.ParseNext()
		if errors.Is(err, io.EOF) {
			if len(samples) == 0 {
				return nil, io.EOF
			}
			return samples, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse FLAC frame: %w", err)
		}

		// One subframe per channel, already planar
		chans := make([][]int32, len(frame.Subframes))
		for c, sub := range frame.Subframes {
			chans[c] = sub.Samples
		}
		format := d.format
		format.BitDepth = int(frame.BitsPerSample)
		if d.pending, err = downmix(format, chans); err != nil {
			return nil, err
		}
	}

	return samples, nil
}

func (d *FLACDecoder) SampleRate() int {
	return d.format.SampleRate
}

func (d *FLACDecoder) NumChannels() int {
	return d.format.Channels
}

// Close releases the stream and its file.
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
		d.stream = nil
	}
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	// The stream may already have closed the file
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
