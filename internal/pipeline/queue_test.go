package pipeline

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/linuxmatters/melcap/internal/audio"
)

func TestFrameQueue_FIFO(t *testing.T) {
	q := NewFrameQueue(4, PolicyBlock)
	for i := range 3 {
		if _, err := q.Push(audio.Frame{Index: i}); err != nil {
			t.Fatal(err)
		}
	}
	q.Close()

	for i := range 3 {
		f, err := q.Pop()
		if err != nil {
			t.Fatalf("Pop %d: %v", i, err)
		}
		if f.Index != i {
			t.Errorf("Pop %d returned frame %d", i, f.Index)
		}
	}
	if _, err := q.Pop(); !errors.Is(err, io.EOF) {
		t.Errorf("Pop on closed empty queue: expected io.EOF, got %v", err)
	}
	if _, err := q.Push(audio.Frame{}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Push after Close: expected ErrQueueClosed, got %v", err)
	}
}

func TestFrameQueue_BlockWaitsForRoom(t *testing.T) {
	q := NewFrameQueue(1, PolicyBlock)
	if _, err := q.Push(audio.Frame{Index: 0}); err != nil {
		t.Fatal(err)
	}

	pushed := make(chan struct{})
	go func() {
		defer close(pushed)
		if _, err := q.Push(audio.Frame{Index: 1}); err != nil {
			t.Errorf("blocked Push: %v", err)
		}
	}()

	select {
	case <-pushed:
		t.Fatal("Push on a full queue did not block")
	case <-time.After(20 * time.Millisecond):
	}

	if f, _ := q.Pop(); f.Index != 0 {
		t.Errorf("first Pop = %d, want 0", f.Index)
	}
	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("Push did not resume after Pop")
	}
	if q.Dropped() != 0 {
		t.Errorf("block policy dropped %d frames", q.Dropped())
	}
}

func TestFrameQueue_DropCountsDiscards(t *testing.T) {
	q := NewFrameQueue(2, PolicyDrop)

	var dropped int
	for i := range 5 {
		d, err := q.Push(audio.Frame{Index: i})
		if err != nil {
			t.Fatal(err)
		}
		if d {
			dropped++
		}
	}
	if dropped != 3 || q.Dropped() != 3 {
		t.Errorf("dropped %d (queue says %d), want 3", dropped, q.Dropped())
	}
	// The oldest frames survive; newcomers are discarded
	if f, _ := q.Pop(); f.Index != 0 {
		t.Errorf("Pop = %d, want 0", f.Index)
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
}

func TestFrameQueue_CloseWakesProducer(t *testing.T) {
	q := NewFrameQueue(1, PolicyBlock)
	q.Push(audio.Frame{})

	errc := make(chan error, 1)
	go func() {
		_, err := q.Push(audio.Frame{})
		errc <- err
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrQueueClosed) {
			t.Errorf("expected ErrQueueClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the blocked producer")
	}
}

func TestParseDropPolicy(t *testing.T) {
	if p, err := ParseDropPolicy("drop"); err != nil || p != PolicyDrop {
		t.Errorf("drop: %v %v", p, err)
	}
	if p, err := ParseDropPolicy("block"); err != nil || p != PolicyBlock {
		t.Errorf("block: %v %v", p, err)
	}
	if _, err := ParseDropPolicy("lossy"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
