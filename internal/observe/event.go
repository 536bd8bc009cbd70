// Package observe carries pipeline events to logs, metrics and the
// terminal UI.
package observe

import (
	"fmt"
	"sync"
	"time"

	"github.com/linuxmatters/melcap/internal/audio"
)

// Kind identifies what happened.
type Kind int

const (
	// EventChunk is emitted for every chunk read from the source.
	EventChunk Kind = iota
	// EventLevel carries one per-channel RMS reading.
	EventLevel
	// EventDrop is emitted when the frame queue discards a chunk.
	EventDrop
	// EventFault is emitted when a read fails with a stream fault.
	EventFault
	// EventRetry is emitted before a faulted read is retried.
	EventRetry
	// EventAnalysis is emitted once the spectrogram has been computed.
	EventAnalysis
)

func (k Kind) String() string {
	switch k {
	case EventChunk:
		return "chunk"
	case EventLevel:
		return "level"
	case EventDrop:
		return "drop"
	case EventFault:
		return "fault"
	case EventRetry:
		return "retry"
	case EventAnalysis:
		return "analysis"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is a single pipeline occurrence. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind   Kind
	Format audio.Format

	// Chunk is the index of the chunk concerned; Total the number of
	// chunks the session expects (0 when unbounded).
	Chunk int
	Total int

	Reading audio.LevelReading

	// Dropped is the running total of discarded chunks.
	Dropped int

	Attempt int
	Backoff time.Duration
	Err     error

	// Elapsed is the wall time of the analysis step.
	Elapsed time.Duration
}

// Sink receives events. Emit must not block for long; it runs on the
// capture goroutine.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi fans events out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Discard
	case 1:
		return out[0]
	}
	return out
}

// Collector keeps every event in memory.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of everything collected so far.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Count returns how many events of kind k were collected.
func (c *Collector) Count(k Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Readings returns the collected level readings in order.
func (c *Collector) Readings() []audio.LevelReading {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []audio.LevelReading
	for _, e := range c.events {
		if e.Kind == EventLevel {
			out = append(out, e.Reading)
		}
	}
	return out
}
