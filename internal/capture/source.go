// Package capture provides chunked PCM sources: a PortAudio input device, a
// deterministic mock and a WAV replay. All variants share the same
// Closed -> Open -> Streaming -> Closed lifecycle.
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/config"
)

// State is the lifecycle position of a Source.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateStreaming:
		return "streaming"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source delivers fixed-size chunks of interleaved PCM.
//
// ReadChunk blocks until a full chunk is available and fails with
// audio.ErrStreamFault outside the Streaming state. Close is idempotent and
// may be called from any state.
type Source interface {
	Open(cfg config.Capture) error
	Start() error
	ReadChunk() (audio.Frame, error)
	Close() error
	State() State
}

// With opens src, starts it, runs fn and always closes src afterwards. A
// close failure is joined with the error returned by fn.
func With(src Source, cfg config.Capture, fn func(Source) error) (err error) {
	if err := src.Open(cfg); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()

	if err := src.Start(); err != nil {
		return err
	}
	return fn(src)
}

// lifecycle is embedded by every Source variant. It tracks the state
// machine, holds the device claim and numbers the frames.
type lifecycle struct {
	mu     sync.Mutex
	state  State
	cfg    config.Capture
	claim  string
	chunks int
}

func (l *lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// open validates cfg, claims key and moves Closed -> Open.
func (l *lifecycle) open(cfg config.Capture, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateClosed {
		return fmt.Errorf("capture: open: source is already %s", l.state)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", audio.ErrFormat, err)
	}
	if err := claimDevice(key); err != nil {
		return err
	}

	l.cfg = cfg
	l.claim = key
	l.chunks = 0
	l.state = StateOpen
	return nil
}

func (l *lifecycle) start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateOpen {
		return fmt.Errorf("%w: start on %s source", audio.ErrStreamFault, l.state)
	}
	l.state = StateStreaming
	return nil
}

// streaming returns an error unless the source is Streaming.
func (l *lifecycle) streaming() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateStreaming {
		return fmt.Errorf("%w: read on %s source", audio.ErrStreamFault, l.state)
	}
	return nil
}

// close moves to Closed and releases the claim. It reports the state the
// source was in so variants know what they have to tear down.
func (l *lifecycle) close() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.state
	if prev != StateClosed {
		releaseDevice(l.claim)
		l.claim = ""
		l.state = StateClosed
	}
	return prev
}

func (l *lifecycle) format() audio.Format {
	return audio.Format{
		SampleRate: l.cfg.SampleRate,
		Channels:   l.cfg.Channels,
		BitDepth:   l.cfg.BitDepth,
	}
}

// frame wraps data as the next chunk in sequence.
func (l *lifecycle) frame(data []byte) audio.Frame {
	l.mu.Lock()
	index := l.chunks
	l.chunks++
	l.mu.Unlock()

	offset := int64(index) * int64(l.cfg.ChunkSize)
	return audio.Frame{
		Data:      data,
		Format:    l.format(),
		Index:     index,
		Timestamp: time.Duration(offset * int64(time.Second) / int64(l.cfg.SampleRate)),
	}
}
