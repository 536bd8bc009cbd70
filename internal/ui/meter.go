package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/melcap/internal/cli"
)

// Meter range in dBFS. Anything quieter draws an empty bar.
const (
	meterFloorDBFS = -60.0
	meterWidth     = 30
)

var (
	meterEmpty = lipgloss.NewStyle().Foreground(lipgloss.Color("#2A2A2A"))
	peakMark   = lipgloss.NewStyle().Foreground(cli.SignalRed)
)

// meterRatio maps a dBFS level onto [0, 1] across the meter range.
func meterRatio(db float64) float64 {
	if math.IsNaN(db) || math.IsInf(db, -1) || db <= meterFloorDBFS {
		return 0
	}
	if db >= 0 {
		return 1
	}
	return (db - meterFloorDBFS) / -meterFloorDBFS
}

// meterColor picks the segment colour at position pos along the meter.
func meterColor(pos float64) lipgloss.Color {
	switch {
	case pos < 0.70:
		return cli.SignalGreen
	case pos < 0.85:
		return cli.SignalLime
	case pos < 0.95:
		return cli.SignalAmber
	default:
		return cli.SignalRed
	}
}

// makeLevelBar draws a horizontal level meter, green through red, with a
// peak-hold tick at peak.
func makeLevelBar(level, peak float64, width int) string {
	filled := int(meterRatio(level) * float64(width))
	hold := int(meterRatio(peak)*float64(width)) - 1

	var result strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			pos := float64(i) / float64(width)
			result.WriteString(lipgloss.NewStyle().Foreground(meterColor(pos)).Render("█"))
		case i == hold:
			result.WriteString(peakMark.Render("│"))
		default:
			result.WriteString(meterEmpty.Render("░"))
		}
	}
	return result.String()
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
