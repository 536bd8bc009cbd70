package feature

import "math"

// amin keeps log10 away from zero.
const amin = 1e-10

// PowerToDB converts a power matrix to decibels relative to its own global
// maximum. The reference is taken over the whole matrix before any log is
// applied, so every value is <= 0. Values are clamped to floorDB; an
// all-zero matrix maps entirely to floorDB.
func PowerToDB(power [][]float64, floorDB float64) [][]float64 {
	ref := 0.0
	for _, row := range power {
		for _, p := range row {
			if p > ref {
				ref = p
			}
		}
	}

	out := make([][]float64, len(power))
	refDB := 10 * math.Log10(math.Max(ref, amin))
	for i, row := range power {
		out[i] = make([]float64, len(row))
		for j, p := range row {
			if ref <= 0 {
				out[i][j] = floorDB
				continue
			}
			db := 10*math.Log10(math.Max(p, amin)) - refDB
			out[i][j] = math.Min(0, math.Max(db, floorDB))
		}
	}
	return out
}
