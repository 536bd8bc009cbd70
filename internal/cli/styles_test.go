package cli

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestFormatDBFS(t *testing.T) {
	testCases := []struct {
		db   float64
		want string
	}{
		{db: -20, want: " -20.0 dBFS"},
		{db: 0, want: "   0.0 dBFS"},
		{db: math.Inf(-1), want: "  -inf dBFS"},
		{db: -150, want: "  -inf dBFS"},
		{db: math.NaN(), want: "  -inf dBFS"},
	}
	for _, tc := range testCases {
		if got := FormatDBFS(tc.db); got != tc.want {
			t.Errorf("FormatDBFS(%v) = %q, want %q", tc.db, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(250 * time.Millisecond); got != "250ms" {
		t.Errorf("FormatDuration(250ms) = %q", got)
	}
	if got := FormatDuration(2048 * time.Millisecond); got != "2.0s" {
		t.Errorf("FormatDuration(2.048s) = %q", got)
	}
}

func TestSummary(t *testing.T) {
	out := Summary("Recording complete", [][2]string{
		{"WAV", "output.wav"},
		{"Mel", "128 bands × 61 frames"},
	})
	for _, want := range []string{"Recording complete", "WAV:", "output.wav", "128 bands × 61 frames"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
