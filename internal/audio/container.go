package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag.
const wavFormatPCM = 1

// WAVWriter streams captured frames into a PCM WAV container. Samples are
// written in the order the device produced them.
type WAVWriter struct {
	enc    *wav.Encoder
	format Format
	frames int
}

// NewWAVWriter writes a WAV header for format to w. The header sizes are
// patched on Close, so w must be seekable.
func NewWAVWriter(w io.WriteSeeker, format Format) (*WAVWriter, error) {
	if format.Channels < 1 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: cannot write WAV for %s", ErrFormat, format)
	}
	if format.BitDepth != 16 && format.BitDepth != 24 && format.BitDepth != 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrFormat, format.BitDepth)
	}
	return &WAVWriter{
		enc:    wav.NewEncoder(w, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM),
		format: format,
	}, nil
}

// WriteFrame appends one captured chunk.
func (w *WAVWriter) WriteFrame(frame Frame) error {
	if frame.Format.Channels != w.format.Channels || frame.Format.BitDepth != w.format.BitDepth {
		return fmt.Errorf("%w: frame is %s, writer is %s", ErrFormat, frame.Format, w.format)
	}
	samples, err := DecodePCM(frame.Data, frame.Format.BitDepth)
	if err != nil {
		return err
	}
	return w.WriteSamples(samples)
}

// WriteSamples appends interleaved samples.
func (w *WAVWriter) WriteSamples(samples []int32) error {
	if len(samples)%w.format.Channels != 0 {
		return fmt.Errorf("%w: %d samples do not divide into %d channels",
			ErrFormat, len(samples), w.format.Channels)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Data: data,
		Format: &goaudio.Format{
			NumChannels: w.format.Channels,
			SampleRate:  w.format.SampleRate,
		},
		SourceBitDepth: w.format.BitDepth,
	}
	if err := w.enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	w.frames += len(samples) / w.format.Channels
	return nil
}

// Frames returns the number of sample-frames written so far.
func (w *WAVWriter) Frames() int {
	return w.frames
}

// Close finalises the header. It does not close the underlying writer.
func (w *WAVWriter) Close() error {
	return w.enc.Close()
}

// Recording is a decoded WAV file.
type Recording struct {
	Format Format

	// Samples are interleaved in file order.
	Samples []int32
}

// NumFrames returns the number of sample-frames in the recording.
func (r *Recording) NumFrames() int {
	if r.Format.Channels == 0 {
		return 0
	}
	return len(r.Samples) / r.Format.Channels
}

// ChannelBuffer deinterleaves the recording.
func (r *Recording) ChannelBuffer() (*ChannelBuffer, error) {
	slices, err := DeinterleaveSamples(r.Samples, r.Format.Channels)
	if err != nil {
		return nil, err
	}
	b := NewChannelBuffer(r.Format, r.NumFrames())
	if err := b.Append(slices); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteWAVFile writes samples to path as a WAV file.
func WriteWAVFile(path string, format Format, samples []int32) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w, err := NewWAVWriter(f, format)
	if err != nil {
		return err
	}
	if err := w.WriteSamples(samples); err != nil {
		return err
	}
	return w.Close()
}

// ReadWAV reads a whole PCM WAV file.
func ReadWAV(filename string) (*Recording, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file %s", ErrFormat, filename)
	}
	// 8-bit PCM is unsigned and never written by a capture session
	if bd := decoder.BitDepth; bd != 16 && bd != 24 && bd != 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d in %s", ErrFormat, bd, filename)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	samples := make([]int32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = int32(s)
	}

	return &Recording{
		Format: Format{
			SampleRate: int(decoder.SampleRate),
			Channels:   int(decoder.NumChans),
			BitDepth:   int(decoder.BitDepth),
		},
		Samples: samples,
	}, nil
}
