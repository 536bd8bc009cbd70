package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/config"
)

// Replay serves a PCM WAV file as if it were a capture device. The file's
// format must match the capture config. The last chunk is zero-padded to
// the full chunk size and the stream then ends with io.EOF.
type Replay struct {
	Path string

	lifecycle
	file *os.File
	dec  *wav.Decoder
	buf  *goaudio.IntBuffer
	done bool
}

// NewReplay returns a source reading path.
func NewReplay(path string) *Replay {
	return &Replay{Path: path}
}

func (r *Replay) Open(cfg config.Capture) error {
	key, err := filepath.Abs(r.Path)
	if err != nil {
		key = r.Path
	}

	f, err := os.Open(r.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", audio.ErrDeviceUnavailable, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return fmt.Errorf("%w: %s is not a valid WAV file", audio.ErrFormat, r.Path)
	}

	chans, rate, depth := int(dec.NumChans), int(dec.SampleRate), int(dec.BitDepth)
	if cfg.Channels > chans {
		f.Close()
		return fmt.Errorf("%w: %s has %d channels, %d requested", audio.ErrChannelMismatch, r.Path, chans, cfg.Channels)
	}
	if cfg.Channels != chans || cfg.SampleRate != rate || cfg.BitDepth != depth {
		f.Close()
		return fmt.Errorf("%w: %s is %dHz %dch %d-bit, capture wants %dHz %dch %d-bit", audio.ErrFormat,
			r.Path, rate, chans, depth, cfg.SampleRate, cfg.Channels, cfg.BitDepth)
	}

	if err := r.open(cfg, "replay:"+key); err != nil {
		f.Close()
		return err
	}

	r.file = f
	r.dec = dec
	r.done = false
	r.buf = &goaudio.IntBuffer{
		Data:           make([]int, cfg.ChunkSize*cfg.Channels),
		Format:         &goaudio.Format{NumChannels: chans, SampleRate: rate},
		SourceBitDepth: depth,
	}
	return nil
}

func (r *Replay) Start() error {
	return r.start()
}

func (r *Replay) ReadChunk() (audio.Frame, error) {
	if err := r.streaming(); err != nil {
		return audio.Frame{}, err
	}
	if r.done {
		return audio.Frame{}, io.EOF
	}

	want := len(r.buf.Data)
	samples := make([]int32, want)
	filled := 0
	for filled < want {
		r.buf.Data = r.buf.Data[:want-filled]
		n, err := r.dec.PCMBuffer(r.buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return audio.Frame{}, fmt.Errorf("%w: replay %s: %w", audio.ErrStreamFault, r.Path, err)
		}
		for i := 0; i < n; i++ {
			samples[filled+i] = int32(r.buf.Data[i])
		}
		filled += n
		if n == 0 || err != nil {
			r.done = true
			break
		}
	}
	r.buf.Data = r.buf.Data[:want]

	if filled == 0 {
		return audio.Frame{}, io.EOF
	}

	data, err := audio.EncodePCM(samples, r.cfg.BitDepth)
	if err != nil {
		return audio.Frame{}, err
	}
	return r.frame(data), nil
}

func (r *Replay) Close() error {
	if r.close() == StateClosed {
		return nil
	}
	f := r.file
	r.file, r.dec = nil, nil
	if f != nil {
		return f.Close()
	}
	return nil
}

// Probe returns the format of the WAV file at path, so a replay can be
// configured to match it.
func Probe(path string) (audio.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Format{}, fmt.Errorf("%w: %w", audio.ErrDeviceUnavailable, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return audio.Format{}, fmt.Errorf("%w: %s is not a valid WAV file", audio.ErrFormat, path)
	}
	return audio.Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}
