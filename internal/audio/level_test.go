package audio

import (
	"math"
	"testing"
)

func TestRMS_Empty(t *testing.T) {
	if got := RMS([]int16{}); got != 0 {
		t.Errorf("RMS([]) = %v, want 0", got)
	}
	if got := RMS[float64](nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
}

func TestRMS_Silence(t *testing.T) {
	if got := RMS(make([]int32, 1024)); got != 0 {
		t.Errorf("RMS(zeros) = %v, want 0", got)
	}
}

func TestRMS_KnownValues(t *testing.T) {
	testCases := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"constant", []float64{3, 3, 3, 3}, 3},
		{"alternating sign", []float64{-2, 2, -2, 2}, 2},
		{"3-4-5", []float64{3, 4}, math.Sqrt(12.5)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RMS(tc.samples); math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("RMS = %v, want %v", got, tc.want)
			}
		})
	}

	// Full-scale sine has RMS of peak/sqrt(2)
	sine := make([]float64, 16000)
	for i := range sine {
		sine[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 16000)
	}
	if got := RMS(sine); math.Abs(got-1/math.Sqrt2) > 1e-3 {
		t.Errorf("RMS(sine) = %v, want ~%v", got, 1/math.Sqrt2)
	}
}

// TestRMS_NoOverflow verifies full-scale 32-bit samples are widened before
// squaring; int32 or even int64 arithmetic would overflow here.
func TestRMS_NoOverflow(t *testing.T) {
	samples := make([]int32, 4096)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = math.MaxInt32
		} else {
			samples[i] = math.MinInt32 + 1
		}
	}
	got := RMS(samples)
	if math.Abs(got-math.MaxInt32) > 1 {
		t.Errorf("RMS(full scale) = %v, want %v", got, float64(math.MaxInt32))
	}

	int16s := []int16{math.MinInt16, math.MinInt16}
	if got := RMS(int16s); got != 32768 {
		t.Errorf("RMS(int16 min) = %v, want 32768", got)
	}
}

// TestRMS_Homogeneous checks rms(k·x) == k·rms(x) and non-negativity.
func TestRMS_Homogeneous(t *testing.T) {
	x := make([]float64, 777)
	for i := range x {
		x[i] = math.Sin(float64(i)*0.37) * float64(i%13-6)
	}
	base := RMS(x)
	if base < 0 {
		t.Fatalf("RMS negative: %v", base)
	}

	for _, k := range []float64{0.001, 0.5, 2, 1000} {
		scaled := make([]float64, len(x))
		for i, v := range x {
			scaled[i] = k * v
		}
		got := RMS(scaled)
		if got < 0 {
			t.Errorf("k=%v: RMS negative: %v", k, got)
		}
		if math.Abs(got-k*base) > 1e-9*k*base {
			t.Errorf("k=%v: RMS(kx) = %v, want %v", k, got, k*base)
		}
	}
}

func TestChannelLevels(t *testing.T) {
	levels := ChannelLevels([][]int32{
		{0, 0, 0},
		{100, -100, 100},
		{},
	})
	want := []float64{0, 100, 0}
	for c := range want {
		if levels[c] != want[c] {
			t.Errorf("channel %d level = %v, want %v", c, levels[c], want[c])
		}
	}
}

func TestDBFS(t *testing.T) {
	if got := DBFS(32768, 16); math.Abs(got) > 1e-9 {
		t.Errorf("DBFS(full scale) = %v, want 0", got)
	}
	if got := DBFS(3276.8, 16); math.Abs(got+20) > 1e-9 {
		t.Errorf("DBFS(-20dB) = %v, want -20", got)
	}
	if got := DBFS(0, 16); !math.IsInf(got, -1) {
		t.Errorf("DBFS(0) = %v, want -Inf", got)
	}
}
