package audio

import (
	"errors"
	"slices"
	"testing"
)

func TestDecodePCM_KnownBytes(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		bitDepth int
		want     []int32
	}{
		{
			name:     "16-bit extremes",
			data:     []byte{0xff, 0x7f, 0x00, 0x80, 0xff, 0xff, 0x01, 0x00},
			bitDepth: 16,
			want:     []int32{32767, -32768, -1, 1},
		},
		{
			name:     "24-bit sign extension",
			data:     []byte{0xff, 0xff, 0x7f, 0x00, 0x00, 0x80, 0xff, 0xff, 0xff},
			bitDepth: 24,
			want:     []int32{8388607, -8388608, -1},
		},
		{
			name:     "32-bit",
			data:     []byte{0x00, 0x00, 0x00, 0x80, 0x01, 0x00, 0x00, 0x00},
			bitDepth: 32,
			want:     []int32{-2147483648, 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodePCM(tc.data, tc.bitDepth)
			if err != nil {
				t.Fatalf("DecodePCM: %v", err)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("DecodePCM = %v, want %v", got, tc.want)
			}

			back, err := EncodePCM(got, tc.bitDepth)
			if err != nil {
				t.Fatalf("EncodePCM: %v", err)
			}
			if !slices.Equal(back, tc.data) {
				t.Errorf("EncodePCM = %x, want %x", back, tc.data)
			}
		})
	}
}

func TestDecodePCM_Errors(t *testing.T) {
	if _, err := DecodePCM([]byte{1, 2, 3}, 16); !errors.Is(err, ErrFormat) {
		t.Errorf("odd byte count: expected ErrFormat, got %v", err)
	}
	if _, err := DecodePCM([]byte{1, 2}, 12); !errors.Is(err, ErrFormat) {
		t.Errorf("12-bit: expected ErrFormat, got %v", err)
	}
	if _, err := EncodePCM([]int32{1}, 8); !errors.Is(err, ErrFormat) {
		t.Errorf("8-bit encode: expected ErrFormat, got %v", err)
	}
}

func TestEncodePCM_Clamps(t *testing.T) {
	data, err := EncodePCM([]int32{40000, -40000}, 16)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := DecodePCM(data, 16)
	if !slices.Equal(got, []int32{32767, -32768}) {
		t.Errorf("clamped = %v, want [32767 -32768]", got)
	}
}
