package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/feature"
	"github.com/linuxmatters/melcap/internal/observe"
	"github.com/linuxmatters/melcap/internal/pipeline"
)

// ChunkProgress reports a captured chunk.
type ChunkProgress struct {
	Chunk int
	Total int // 0 when unbounded
}

// LevelUpdate carries one per-channel RMS reading.
type LevelUpdate struct {
	Reading  audio.LevelReading
	BitDepth int
}

// DropUpdate reports the running total of discarded chunks.
type DropUpdate struct {
	Dropped int
}

// FaultUpdate reports a stream fault, retried or not.
type FaultUpdate struct {
	Attempt int
	Backoff time.Duration
	Err     error
}

// AnalysisProgress represents progress through the spectrogram frames
type AnalysisProgress struct {
	Frame       int
	TotalFrames int
}

// AnalysisComplete signals the spectrogram is ready
type AnalysisComplete struct {
	Bands   int
	Frames  int
	Elapsed time.Duration
}

// RecordComplete ends a record or analyze session.
type RecordComplete struct {
	Result *pipeline.Result
	Err    error
}

// MonitorComplete ends a monitor session.
type MonitorComplete struct {
	Profile pipeline.LevelProfile
	Err     error
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Sink forwards pipeline events to a running program as messages.
type Sink struct {
	p Sender
}

// NewSink returns a sink that sends to p.
func NewSink(p Sender) *Sink {
	return &Sink{p: p}
}

func (s *Sink) Emit(e observe.Event) {
	switch e.Kind {
	case observe.EventChunk:
		s.p.Send(ChunkProgress{Chunk: e.Chunk + 1, Total: e.Total})
	case observe.EventLevel:
		s.p.Send(LevelUpdate{Reading: e.Reading, BitDepth: e.Format.BitDepth})
	case observe.EventDrop:
		s.p.Send(DropUpdate{Dropped: e.Dropped})
	case observe.EventRetry, observe.EventFault:
		s.p.Send(FaultUpdate{Attempt: e.Attempt, Backoff: e.Backoff, Err: e.Err})
	case observe.EventAnalysis:
		// Bands and frames follow in the completion message
		s.p.Send(AnalysisComplete{Elapsed: e.Elapsed})
	}
}

// Progress returns a callback that reports spectrogram progress to p,
// every step frames and on the last one.
func (s *Sink) Progress(step int) feature.ProgressCallback {
	if step < 1 {
		step = 1
	}
	return func(frame, total int) {
		if frame%step == 0 || frame == total {
			s.p.Send(AnalysisProgress{Frame: frame, TotalFrames: total})
		}
	}
}
