package pipeline

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/linuxmatters/melcap/internal/audio"
)

// ErrQueueClosed is returned when pushing to a closed queue.
var ErrQueueClosed = errors.New("frame queue is closed")

// DropPolicy decides what Push does when the queue is full.
type DropPolicy int

const (
	// PolicyBlock makes the producer wait for room.
	PolicyBlock DropPolicy = iota
	// PolicyDrop discards the incoming frame and counts it.
	PolicyDrop
)

// ParseDropPolicy maps the config names "block" and "drop".
func ParseDropPolicy(s string) (DropPolicy, error) {
	switch s {
	case "block", "":
		return PolicyBlock, nil
	case "drop":
		return PolicyDrop, nil
	}
	return PolicyBlock, fmt.Errorf("unknown drop policy %q", s)
}

func (p DropPolicy) String() string {
	if p == PolicyDrop {
		return "drop"
	}
	return "block"
}

// FrameQueue is a bounded FIFO between the capture goroutine and the
// consumer.
//
// Design:
// - Single producer pushes frames read from the source
// - Single consumer pops them in order
// - Close signals end of stream; the consumer drains what is left, then
//   gets io.EOF
type FrameQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	frames   []audio.Frame
	capacity int
	policy   DropPolicy

	dropped int
	closed  bool
}

// NewFrameQueue creates a queue holding at most capacity frames.
func NewFrameQueue(capacity int, policy DropPolicy) *FrameQueue {
	if capacity < 1 {
		capacity = 1
	}
	q := &FrameQueue{
		frames:   make([]audio.Frame, 0, capacity),
		capacity: capacity,
		policy:   policy,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends frame. Under PolicyBlock it waits while the queue is full;
// under PolicyDrop a full queue discards frame and Push reports
// dropped=true.
func (q *FrameQueue) Push(frame audio.Frame) (dropped bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && len(q.frames) >= q.capacity {
		if q.policy == PolicyDrop {
			q.dropped++
			return true, nil
		}
		q.cond.Wait()
	}
	if q.closed {
		return false, ErrQueueClosed
	}

	q.frames = append(q.frames, frame)
	q.cond.Broadcast()
	return false, nil
}

// Pop removes the oldest frame, blocking until one is available. It returns
// io.EOF once the queue is closed and empty.
func (q *FrameQueue) Pop() (audio.Frame, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.frames) == 0 {
		if q.closed {
			return audio.Frame{}, io.EOF
		}
		q.cond.Wait()
	}

	frame := q.frames[0]
	q.frames[0] = audio.Frame{}
	q.frames = q.frames[1:]
	q.cond.Broadcast()
	return frame, nil
}

// Close marks end of stream and wakes every waiter. Safe to call more than
// once.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Dropped returns how many frames PolicyDrop has discarded.
func (q *FrameQueue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
