package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder reads a RIFF/WAVE PCM file for analysis.
type WAVDecoder struct {
	dec    *wav.Decoder
	file   *os.File
	format Format
	buf    *goaudio.IntBuffer
}

// NewWAVDecoder opens filename and positions the decoder at the PCM data.
func NewWAVDecoder(filename string) (*WAVDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrFormat, filename)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek to PCM data in %s: %w", filename, err)
	}

	return &WAVDecoder{
		dec:  dec,
		file: f,
		format: Format{
			SampleRate: int(dec.SampleRate),
			Channels:   int(dec.NumChans),
			BitDepth:   int(dec.BitDepth),
		},
	}, nil
}

// Format returns the file's native format.
func (d *WAVDecoder) Format() Format {
	return d.format
}

// ReadChunk reads up to numSamples sample-frames and returns their mono
// downmix.
func (d *WAVDecoder) ReadChunk(numSamples int) ([]float64, error) {
	want := numSamples * d.format.Channels
	if d.buf == nil || cap(d.buf.Data) < want {
		d.buf = &goaudio.IntBuffer{
			Data:           make([]int, want),
			Format:         &goaudio.Format{NumChannels: d.format.Channels, SampleRate: d.format.SampleRate},
			SourceBitDepth: d.format.BitDepth,
		}
	}
	d.buf.Data = d.buf.Data[:want]

	n, err := d.dec.PCMBuffer(d.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read PCM: %w", err)
	}
	// A truncated file can end mid sample-frame
	n -= n % d.format.Channels
	if n == 0 {
		return nil, io.EOF
	}

	// 8-bit WAV samples are unsigned around 128
	var offset int32
	if d.format.BitDepth == 8 {
		offset = 128
	}
	interleaved := make([]int32, n)
	for i, s := range d.buf.Data[:n] {
		interleaved[i] = int32(s) - offset
	}
	chans, err := DeinterleaveSamples(interleaved, d.format.Channels)
	if err != nil {
		return nil, err
	}
	return downmix(d.format, chans)
}

func (d *WAVDecoder) SampleRate() int {
	return d.format.SampleRate
}

func (d *WAVDecoder) NumChannels() int {
	return d.format.Channels
}

// Close releases the file.
func (d *WAVDecoder) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
