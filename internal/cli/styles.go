package cli

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Tagline is shown under the name in the version banner and help.
const Tagline = "Capture a microphone array, watch every channel's level and turn the recording into a mel spectrogram."

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SignalViolet).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SlateGray).
			Italic(true)

	// Section header style
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SignalAmber).
			MarginTop(1).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SignalGreen)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SignalRed)

	// Highlight style for device indices and warnings
	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SignalAmber)

	KeyStyle = lipgloss.NewStyle().
			Foreground(SlateGray)

	ValueStyle = lipgloss.NewStyle().
			Bold(true)

	// Box style for the end-of-session summary
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SignalViolet).
			Padding(1, 2).
			MarginTop(1)
)

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("melcap"))
	fmt.Println(SubtitleStyle.Render(Tagline))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
}

// PrintError prints an error message to stderr
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning message to stderr
func PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", HighlightStyle.Render("Warning:"), message)
}

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Println(HeaderStyle.Render(title))
}

// FormatDuration formats a duration nicely
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", d.Seconds()*1000)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatDBFS formats a level right-aligned, showing silence as "-inf".
func FormatDBFS(db float64) string {
	if math.IsNaN(db) || math.IsInf(db, -1) || db < -120 {
		return "  -inf dBFS"
	}
	return fmt.Sprintf("%6.1f dBFS", db)
}

// Summary renders key/value rows in a box under a success heading.
func Summary(heading string, rows [][2]string) string {
	var b strings.Builder
	b.WriteString(SuccessStyle.Render("✓ " + heading))
	b.WriteString("\n")

	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(KeyStyle.Render(fmt.Sprintf("%-*s  ", width+1, r[0]+":")))
		b.WriteString(ValueStyle.Render(r[1]))
	}
	return BoxStyle.Render(b.String())
}

// PrintSummary prints Summary to stdout.
func PrintSummary(heading string, rows [][2]string) {
	fmt.Println(Summary(heading, rows))
}
