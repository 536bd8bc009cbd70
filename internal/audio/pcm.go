package audio

import (
	"encoding/binary"
	"fmt"
)

// DecodePCM converts little-endian signed PCM bytes into samples. bitDepth
// must be 16, 24 or 32 and len(data) a whole number of samples.
func DecodePCM(data []byte, bitDepth int) ([]int32, error) {
	width := bitDepth / 8
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrFormat, bitDepth)
	}
	if len(data)%width != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of the %d-byte sample width",
			ErrFormat, len(data), width)
	}

	samples := make([]int32, len(data)/width)
	switch bitDepth {
	case 16:
		for i := range samples {
			samples[i] = int32(int16(binary.LittleEndian.Uint16(data[i*2:])))
		}
	case 24:
		for i := range samples {
			b := data[i*3 : i*3+3]
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			// Sign-extend from bit 23
			samples[i] = (v << 8) >> 8
		}
	case 32:
		for i := range samples {
			samples[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
	}
	return samples, nil
}

// EncodePCM is the inverse of DecodePCM. Samples outside the range of
// bitDepth are clamped.
func EncodePCM(samples []int32, bitDepth int) ([]byte, error) {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrFormat, bitDepth)
	}
	width := bitDepth / 8
	out := make([]byte, len(samples)*width)

	switch bitDepth {
	case 16:
		for i, s := range samples {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(clamp(s, 16))))
		}
	case 24:
		for i, s := range samples {
			v := clamp(s, 24)
			out[i*3] = byte(v)
			out[i*3+1] = byte(v >> 8)
			out[i*3+2] = byte(v >> 16)
		}
	case 32:
		for i, s := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(s))
		}
	}
	return out, nil
}

func clamp(s int32, bitDepth int) int32 {
	if bitDepth >= 32 {
		return s
	}
	hi := int32(1)<<(bitDepth-1) - 1
	lo := -hi - 1
	if s > hi {
		return hi
	}
	if s < lo {
		return lo
	}
	return s
}
