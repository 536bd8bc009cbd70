package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to interleaved 16-bit LE stereo.
const (
	mp3Channels = 2
	mp3BitDepth = 16
)

// MP3Decoder reads an MP3 file for analysis.
type MP3Decoder struct {
	dec    *mp3.Decoder
	file   *os.File
	format Format
	buf    []byte
}

// NewMP3Decoder opens filename.
func NewMP3Decoder(filename string) (*MP3Decoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrFormat, filename, err)
	}

	return &MP3Decoder{
		dec:    dec,
		file:   f,
		format: Format{SampleRate: dec.SampleRate(), Channels: mp3Channels, BitDepth: mp3BitDepth},
	}, nil
}

// ReadChunk decodes up to numSamples stereo frames and returns their mono
// downmix.
func (d *MP3Decoder) ReadChunk(numSamples int) ([]float64, error) {
	frameBytes := d.format.Channels * d.format.BytesPerSample()
	want := numSamples * frameBytes
	if cap(d.buf) < want {
		d.buf = make([]byte, want)
	}

	n, err := io.ReadFull(d.dec, d.buf[:want])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read MP3 data: %w", err)
	}
	n -= n % frameBytes
	if n == 0 {
		return nil, io.EOF
	}

	interleaved, err := DecodePCM(d.buf[:n], d.format.BitDepth)
	if err != nil {
		return nil, err
	}
	chans, err := DeinterleaveSamples(interleaved, d.format.Channels)
	if err != nil {
		return nil, err
	}
	return downmix(d.format, chans)
}

func (d *MP3Decoder) SampleRate() int {
	return d.format.SampleRate
}

func (d *MP3Decoder) NumChannels() int {
	return d.format.Channels
}

// Close releases the file.
func (d *MP3Decoder) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
