package capture

import (
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/config"
)

func testCapture(channels int) config.Capture {
	return config.Capture{SampleRate: 16000, Channels: channels, BitDepth: 16, ChunkSize: 1024, Device: "mock"}
}

func TestMock_Lifecycle(t *testing.T) {
	m := NewMock(t.Name(), Ramp())

	if m.State() != StateClosed {
		t.Fatalf("new source state = %s, want closed", m.State())
	}
	if _, err := m.ReadChunk(); !errors.Is(err, audio.ErrStreamFault) {
		t.Errorf("read before open: expected ErrStreamFault, got %v", err)
	}

	if err := m.Open(testCapture(4)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := m.ReadChunk(); !errors.Is(err, audio.ErrStreamFault) {
		t.Errorf("read before start: expected ErrStreamFault, got %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.State() != StateStreaming {
		t.Fatalf("state = %s, want streaming", m.State())
	}

	for i := range 3 {
		frame, err := m.ReadChunk()
		if err != nil {
			t.Fatalf("ReadChunk %d: %v", i, err)
		}
		if frame.Index != i {
			t.Errorf("frame.Index = %d, want %d", frame.Index, i)
		}
		if len(frame.Data) != 1024*4*2 {
			t.Errorf("len(frame.Data) = %d, want %d", len(frame.Data), 1024*4*2)
		}
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := m.ReadChunk(); !errors.Is(err, audio.ErrStreamFault) {
		t.Errorf("read after close: expected ErrStreamFault, got %v", err)
	}

	calls := m.Calls()
	t.Logf("calls: %+v", calls)
	if calls.Open != 1 || calls.Start != 1 || calls.Close != 2 || calls.Read != 6 {
		t.Errorf("unexpected call counts %+v", calls)
	}
}

// TestMock_FrameLayout checks that chunk data deinterleaves back into the
// waveform the mock was given, including across chunk boundaries.
func TestMock_FrameLayout(t *testing.T) {
	m := NewMock(t.Name(), Ramp())
	cfg := testCapture(6)
	cfg.ChunkSize = 100

	err := With(m, cfg, func(src Source) error {
		for chunk := range 2 {
			frame, err := src.ReadChunk()
			if err != nil {
				return err
			}
			chans, err := audio.Deinterleave(frame, cfg.Channels)
			if err != nil {
				return err
			}
			for c, samples := range chans {
				for f, s := range samples {
					want := int32(c*1000 + (chunk*100+f)%1000)
					if s != want {
						t.Fatalf("chunk %d channel %d frame %d = %d, want %d", chunk, c, f, s, want)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMock_Timestamps(t *testing.T) {
	m := NewMock(t.Name(), Silence())
	err := With(m, testCapture(1), func(src Source) error {
		for i := range 16 {
			frame, err := src.ReadChunk()
			if err != nil {
				return err
			}
			if want := frame.Format.SampleRate; want != 16000 {
				t.Fatalf("frame sample rate = %d", want)
			}
			if i == 15 && frame.Timestamp.Milliseconds() != 960 {
				t.Errorf("chunk 15 timestamp = %s, want 960ms", frame.Timestamp)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMock_ChannelMismatch(t *testing.T) {
	m := NewMock(t.Name(), Silence())
	m.MaxInputChannels = 4

	err := m.Open(testCapture(6))
	if !errors.Is(err, audio.ErrChannelMismatch) {
		t.Fatalf("expected ErrChannelMismatch, got %v", err)
	}
	if m.State() != StateClosed {
		t.Errorf("failed Open left state %s", m.State())
	}
	if err := m.Open(testCapture(4)); err != nil {
		t.Errorf("Open within limit: %v", err)
	}
	m.Close()
}

func TestMock_UnsupportedBitDepth(t *testing.T) {
	m := NewMock(t.Name(), Silence())
	cfg := testCapture(1)
	cfg.BitDepth = 8
	if err := m.Open(cfg); !errors.Is(err, audio.ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestMock_Fault(t *testing.T) {
	m := NewMock(t.Name(), Silence())
	m.FaultAfter = 3

	var delivered int
	err := With(m, testCapture(1), func(src Source) error {
		for {
			if _, err := src.ReadChunk(); err != nil {
				return err
			}
			delivered++
		}
	})
	if !errors.Is(err, audio.ErrStreamFault) {
		t.Fatalf("expected ErrStreamFault, got %v", err)
	}
	if delivered != 3 {
		t.Errorf("delivered %d chunks before the fault, want 3", delivered)
	}
	if m.State() != StateClosed {
		t.Errorf("With did not close the source, state %s", m.State())
	}
}

func TestMock_TransientFault(t *testing.T) {
	m := NewMock(t.Name(), Silence())
	m.FaultAfter = 2
	m.FaultCount = 1

	err := With(m, testCapture(1), func(src Source) error {
		var errs []error
		for range 4 {
			_, err := src.ReadChunk()
			errs = append(errs, err)
		}
		if errs[0] != nil || errs[1] != nil || errs[3] != nil {
			t.Errorf("unexpected errors %v", errs)
		}
		if !errors.Is(errs[2], audio.ErrStreamFault) {
			t.Errorf("read 2: expected ErrStreamFault, got %v", errs[2])
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMock_ChunksEndWithEOF(t *testing.T) {
	m := NewMock(t.Name(), Silence())
	m.Chunks = 2

	var n int
	err := With(m, testCapture(1), func(src Source) error {
		for {
			_, err := src.ReadChunk()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			n++
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("read %d chunks, want 2", n)
	}
}

func TestExclusiveOwnership(t *testing.T) {
	a := NewMock("shared-array", Silence())
	b := NewMock("shared-array", Silence())

	if err := a.Open(testCapture(1)); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := b.Open(testCapture(1)); !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Errorf("second Open of held device: expected ErrDeviceUnavailable, got %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Open(testCapture(1)); err != nil {
		t.Errorf("Open after release: %v", err)
	}
	b.Close()
}

func TestWith_JoinsCloseError(t *testing.T) {
	src := &failingClose{Mock: NewMock(t.Name(), Silence())}
	runErr := errors.New("run failed")

	err := With(src, testCapture(1), func(Source) error { return runErr })
	if !errors.Is(err, runErr) {
		t.Errorf("run error lost: %v", err)
	}
	if !errors.Is(err, errCloseFailed) {
		t.Errorf("close error lost: %v", err)
	}
}

func TestWith_OpenFailureSkipsRun(t *testing.T) {
	m := NewMock(t.Name(), Silence())
	m.MaxInputChannels = 1

	ran := false
	err := With(m, testCapture(2), func(Source) error {
		ran = true
		return nil
	})
	if !errors.Is(err, audio.ErrChannelMismatch) {
		t.Errorf("expected ErrChannelMismatch, got %v", err)
	}
	if ran {
		t.Error("fn ran after Open failed")
	}
	if calls := m.Calls(); calls.Close != 0 {
		t.Errorf("Close called %d times after failed Open", calls.Close)
	}
}

var errCloseFailed = errors.New("close failed")

type failingClose struct{ *Mock }

func (f *failingClose) Close() error {
	f.Mock.Close()
	return errCloseFailed
}

func TestStateString(t *testing.T) {
	got := []string{StateClosed.String(), StateOpen.String(), StateStreaming.String(), State(9).String()}
	want := []string{"closed", "open", "streaming", "State(9)"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
