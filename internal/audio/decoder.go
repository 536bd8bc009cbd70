package audio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// AudioDecoder defines the interface for file decoders used as analysis
// input. Every decoder downmixes to mono.
type AudioDecoder interface {
	// ReadChunk reads up to numSamples mono samples as float64 in [-1, 1].
	// Returns io.EOF when the file is exhausted.
	ReadChunk(numSamples int) ([]float64, error)

	// SampleRate returns the audio sample rate in Hz
	SampleRate() int

	// NumChannels returns the number of channels in the file before downmix
	NumChannels() int

	// Close closes the decoder and releases resources
	Close() error
}

// OpenDecoder picks a decoder from the file extension.
func OpenDecoder(filename string) (AudioDecoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav", ".wave":
		return NewWAVDecoder(filename)
	case ".mp3":
		return NewMP3Decoder(filename)
	case ".flac":
		return NewFLACDecoder(filename)
	default:
		return nil, fmt.Errorf("%w: unsupported audio file type %q", ErrFormat, filepath.Ext(filename))
	}
}

// downmix averages planar channels to mono through a ChannelBuffer.
func downmix(format Format, chans [][]int32) ([]float64, error) {
	format.Channels = len(chans)
	n := 0
	if len(chans) > 0 {
		n = len(chans[0])
	}
	cb := NewChannelBuffer(format, n)
	if err := cb.Append(chans); err != nil {
		return nil, err
	}
	return cb.Downmix(), nil
}

// loadChunkSize is the number of samples pulled per decoder read in LoadMono.
const loadChunkSize = 8192

// LoadMono decodes a whole file to mono float64 samples at the file's own
// sample rate.
func LoadMono(filename string) ([]float64, int, error) {
	dec, err := OpenDecoder(filename)
	if err != nil {
		return nil, 0, err
	}
	defer dec.Close()

	var samples []float64
	for {
		chunk, err := dec.ReadChunk(loadChunkSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("error reading %s at sample %d: %w", filename, len(samples), err)
		}
		samples = append(samples, chunk...)
	}

	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("no audio data in %s", filename)
	}
	return samples, dec.SampleRate(), nil
}
