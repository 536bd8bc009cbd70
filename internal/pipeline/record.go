package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/capture"
	"github.com/linuxmatters/melcap/internal/config"
	"github.com/linuxmatters/melcap/internal/observe"
)

// Recording is the result of a capture session.
type Recording struct {
	Buffer *audio.ChannelBuffer

	// Chunks counts chunks read from the source, Dropped those the frame
	// queue discarded and Retries the faulted reads that were retried.
	Chunks  int
	Dropped int
	Retries int
}

// Duration returns the length of the audio held in the buffer.
func (r *Recording) Duration() time.Duration {
	rate := r.Buffer.Format().SampleRate
	if rate <= 0 {
		return 0
	}
	return time.Duration(int64(r.Buffer.Len()) * int64(time.Second) / int64(rate))
}

// Record captures chunks chunks from src and returns them demultiplexed. A
// source that ends early with io.EOF (a replayed file) ends the recording
// without error.
//
// With cfg.Pipeline.QueueSize == 0 everything runs on the calling goroutine.
// Otherwise capture and consumption run concurrently, joined by a
// FrameQueue with cfg.Pipeline.DropPolicy.
func Record(ctx context.Context, src capture.Source, cfg config.Config, chunks int, opts ...Option) (*Recording, error) {
	o := newOptions(opts)
	s := &session{
		cfg:    cfg,
		opts:   o,
		total:  chunks,
		buffer: audio.NewChannelBuffer(formatOf(cfg.Capture), chunks*cfg.Capture.ChunkSize),
		meter:  newLevelMeter(o.levelEvery),
	}

	o.log.Info("Recording",
		zap.Stringer("capture", cfg.Capture),
		zap.Int("chunks", chunks),
		zap.Int("queue_size", cfg.Pipeline.QueueSize),
	)

	err := capture.With(src, cfg.Capture, func(src capture.Source) error {
		if cfg.Pipeline.QueueSize > 0 {
			return s.runQueued(ctx, src)
		}
		return s.runSync(ctx, src)
	})

	rec := &Recording{
		Buffer:  s.buffer,
		Chunks:  s.chunks,
		Dropped: s.dropped,
		Retries: s.retries,
	}
	if err != nil {
		return rec, fmt.Errorf("record: %w", err)
	}
	return rec, nil
}

// session holds the state of one Record or Monitor call.
type session struct {
	cfg   config.Config
	opts  *options
	total int // 0 = until cancelled or EOF

	buffer *audio.ChannelBuffer // nil when samples are not kept
	meter  *levelMeter

	chunks, dropped, retries int
}

func formatOf(c config.Capture) audio.Format {
	return audio.Format{SampleRate: c.SampleRate, Channels: c.Channels, BitDepth: c.BitDepth}
}

func (s *session) done() bool {
	return s.total > 0 && s.chunks >= s.total
}

func (s *session) runSync(ctx context.Context, src capture.Source) error {
	for !s.done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := s.read(ctx, src)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.consume(frame); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) runQueued(ctx context.Context, src capture.Source) error {
	policy, err := ParseDropPolicy(s.cfg.Pipeline.DropPolicy)
	if err != nil {
		return err
	}
	q := NewFrameQueue(s.cfg.Pipeline.QueueSize, policy)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer q.Close()
		for !s.done() {
			if err := gctx.Err(); err != nil {
				return err
			}
			frame, err := s.read(gctx, src)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}

			dropped, err := q.Push(frame)
			if errors.Is(err, ErrQueueClosed) {
				// Consumer failed; its error is the one reported.
				return nil
			}
			if dropped {
				s.dropped = q.Dropped()
				s.opts.sink.Emit(observe.Event{
					Kind:    observe.EventDrop,
					Format:  frame.Format,
					Chunk:   frame.Index,
					Total:   s.total,
					Dropped: s.dropped,
				})
			}
		}
		return nil
	})

	g.Go(func() error {
		for {
			frame, err := q.Pop()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err := s.consume(frame); err != nil {
				q.Close()
				return err
			}
		}
	})

	return g.Wait()
}

// read fetches the next chunk, retrying stream faults as configured.
func (s *session) read(ctx context.Context, src capture.Source) (audio.Frame, error) {
	p := s.cfg.Pipeline
	backoff := p.RetryBackoff

	for attempt := 1; ; attempt++ {
		frame, err := src.ReadChunk()
		if err == nil {
			s.chunks++
			s.opts.sink.Emit(observe.Event{
				Kind:   observe.EventChunk,
				Format: frame.Format,
				Chunk:  frame.Index,
				Total:  s.total,
			})
			return frame, nil
		}
		if !errors.Is(err, audio.ErrStreamFault) {
			return audio.Frame{}, err
		}
		if attempt > p.RetryAttempts {
			s.opts.sink.Emit(observe.Event{Kind: observe.EventFault, Chunk: s.chunks, Total: s.total, Err: err})
			return audio.Frame{}, err
		}

		s.retries++
		s.opts.sink.Emit(observe.Event{
			Kind:    observe.EventRetry,
			Chunk:   s.chunks,
			Total:   s.total,
			Attempt: attempt,
			Backoff: backoff,
			Err:     err,
		})

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return audio.Frame{}, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}

// consume demultiplexes frame, stores it and updates the level meter.
func (s *session) consume(frame audio.Frame) error {
	chans, err := audio.Deinterleave(frame, s.cfg.Capture.Channels)
	if err != nil {
		return err
	}

	if s.buffer != nil {
		if err := s.buffer.Append(chans); err != nil {
			return fmt.Errorf("chunk %d: %w", frame.Index, err)
		}
	}
	if s.opts.wav != nil {
		if err := s.opts.wav.WriteFrame(frame); err != nil {
			return fmt.Errorf("write chunk %d: %w", frame.Index, err)
		}
	}

	if reading, ok := s.meter.add(chans); ok {
		s.opts.sink.Emit(observe.Event{
			Kind:    observe.EventLevel,
			Format:  frame.Format,
			Chunk:   frame.Index,
			Total:   s.total,
			Reading: reading,
		})
	}
	return nil
}
