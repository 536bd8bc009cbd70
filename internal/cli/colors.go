package cli

import "github.com/charmbracelet/lipgloss"

// Signal palette
// Shared level-meter colours for consistent branding across CLI and TUI
var (
	// Meter colours (quiet to hot)
	SignalGreen  = lipgloss.Color("#3FB950") // Healthy level
	SignalLime   = lipgloss.Color("#A3D944") // Getting loud
	SignalAmber  = lipgloss.Color("#F0B429") // Near full scale
	SignalRed    = lipgloss.Color("#E5484D") // Clipping territory
	SignalViolet = lipgloss.Color("#7A3EB1") // Brand accent

	// Accent colours
	SlateGray = lipgloss.Color("#8B949E") // Subtle text
)
