package renderer

import (
	"image/color"
	"math"
)

// viridis control points, evenly spaced from 0 to 1.
var viridis = []color.RGBA{
	{R: 68, G: 1, B: 84, A: 255},
	{R: 71, G: 45, B: 123, A: 255},
	{R: 59, G: 82, B: 139, A: 255},
	{R: 44, G: 114, B: 142, A: 255},
	{R: 33, G: 145, B: 140, A: 255},
	{R: 40, G: 174, B: 128, A: 255},
	{R: 94, G: 201, B: 98, A: 255},
	{R: 173, G: 220, B: 48, A: 255},
	{R: 253, G: 231, B: 37, A: 255},
}

// Colormap maps t in [0, 1] onto the viridis palette. Values outside the
// range are clamped.
func Colormap(t float64) color.RGBA {
	if math.IsNaN(t) || t <= 0 {
		return viridis[0]
	}
	if t >= 1 {
		return viridis[len(viridis)-1]
	}

	pos := t * float64(len(viridis)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := viridis[i], viridis[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac))
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}

// dbToUnit maps a decibel value in [floor, 0] to [0, 1].
func dbToUnit(db, floor float64) float64 {
	if floor >= 0 {
		return 1
	}
	return (db - floor) / -floor
}
