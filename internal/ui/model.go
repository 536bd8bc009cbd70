package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/cli"
	"github.com/linuxmatters/melcap/internal/pipeline"
)

// Mode selects which session the model is showing.
type Mode int

const (
	ModeRecord Mode = iota
	ModeMonitor
	ModeAnalyze
)

// Phase represents the current processing phase
type Phase int

const (
	PhaseCapture Phase = iota
	PhaseAnalysis
	PhaseComplete
)

// quitMsg is sent when it's time to quit after showing completion
type quitMsg struct{}

// Model is the Bubbletea model shared by the record, monitor and analyze
// commands.
type Model struct {
	mode        Mode
	phase       Phase
	heading     string
	progressBar progress.Model

	// Capture state
	chunk     ChunkProgress
	levels    []float64 // Latest reading per channel, dBFS
	peaks     []float64 // Peak hold per channel, dBFS
	readings  int
	dropped   int
	faults    int
	lastFault error

	// Analysis state
	analysis     AnalysisProgress
	analysisTime time.Duration

	// Completion
	result  *pipeline.Result
	profile *pipeline.LevelProfile
	err     error

	cancel          func()
	stopping        bool
	startTime       time.Time
	completionTime  time.Time
	completionDelay time.Duration
	width           int
}

// NewModel creates a model for mode. heading describes the capture format
// or input file. cancel, if set, is called when the user interrupts so the
// session can wind down and report; otherwise the program quits at once.
func NewModel(mode Mode, heading string, cancel func()) *Model {
	p := progress.New(
		progress.WithGradient(string(cli.SignalViolet), string(cli.SignalAmber)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	phase := PhaseCapture
	if mode == ModeAnalyze {
		phase = PhaseAnalysis
	}

	return &Model{
		mode:            mode,
		phase:           phase,
		heading:         heading,
		progressBar:     p,
		cancel:          cancel,
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(10, min(msg.Width-30, 50))
		return m, nil

	case ChunkProgress:
		m.chunk = msg
		return m, nil

	case LevelUpdate:
		m.readings++
		m.updateLevels(msg)
		return m, nil

	case DropUpdate:
		m.dropped = msg.Dropped
		return m, nil

	case FaultUpdate:
		m.faults++
		m.lastFault = msg.Err
		return m, nil

	case AnalysisProgress:
		m.phase = PhaseAnalysis
		m.analysis = msg
		return m, nil

	case AnalysisComplete:
		m.analysisTime = msg.Elapsed
		return m, nil

	case RecordComplete:
		m.result = msg.Result
		return m, m.finish(msg.Err)

	case MonitorComplete:
		m.profile = &msg.Profile
		return m, m.finish(msg.Err)

	case quitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.phase == PhaseComplete {
			return m, tea.Quit
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel == nil {
				return m, tea.Quit
			}
			if !m.stopping {
				m.stopping = true
				m.cancel()
			}
		}
	}

	return m, nil
}

func (m *Model) finish(err error) tea.Cmd {
	// An interrupt is a normal way to end a monitor session
	if errors.Is(err, context.Canceled) && m.mode == ModeMonitor {
		err = nil
	}
	m.err = err
	m.phase = PhaseComplete
	m.completionTime = time.Now()
	return tea.Tick(m.completionDelay, func(time.Time) tea.Msg {
		return quitMsg{}
	})
}

func (m *Model) updateLevels(u LevelUpdate) {
	n := len(u.Reading.Levels)
	if len(m.levels) != n {
		m.levels = make([]float64, n)
		m.peaks = make([]float64, n)
		for i := range m.peaks {
			m.peaks[i] = math.Inf(-1)
		}
	}
	for i, rms := range u.Reading.Levels {
		db := audio.DBFS(rms, u.BitDepth)
		m.levels[i] = db
		m.peaks[i] = max(m.peaks[i], db)
	}
}

// Err returns the error the session ended with, if any.
func (m *Model) Err() error {
	return m.err
}

// View renders the UI
func (m *Model) View() string {
	if m.phase == PhaseComplete {
		return m.Summary()
	}
	return m.renderProgress()
}

// Summary returns the completion summary for printing after the program
// exits. It is empty until the session has completed.
func (m *Model) Summary() string {
	if m.phase != PhaseComplete {
		return ""
	}
	if m.err != nil {
		return m.renderFailed()
	}
	return m.renderComplete()
}

func (m *Model) phaseLabel() string {
	switch {
	case m.phase == PhaseAnalysis:
		return "Computing mel spectrogram"
	case m.mode == ModeMonitor:
		return "Monitoring levels"
	default:
		return "Recording"
	}
}

func (m *Model) renderProgress() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.SignalLime).
		Render("melcap")
	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(cli.SignalAmber).Render(m.phaseLabel()))
	if m.heading != "" {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("  " + m.heading))
	}
	s.WriteString("\n\n")

	if m.phase == PhaseAnalysis {
		m.renderAnalysisProgress(&s)
	} else {
		m.renderCaptureProgress(&s)
	}

	if len(m.levels) > 0 {
		s.WriteString("\n")
		m.renderMeters(&s)
	}

	if m.dropped > 0 || m.faults > 0 {
		s.WriteString("\n")
		warn := lipgloss.NewStyle().Foreground(cli.SignalAmber)
		line := fmt.Sprintf("Dropped: %d  │  Faults: %d", m.dropped, m.faults)
		if m.lastFault != nil {
			line += "  │  " + m.lastFault.Error()
		}
		s.WriteString(warn.Render(line))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	hint := "Press q to stop"
	if m.stopping {
		hint = "Stopping..."
	}
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(hint))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.SignalViolet).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderCaptureProgress(s *strings.Builder) {
	elapsed := time.Since(m.startTime)
	if m.chunk.Total > 0 {
		percent := float64(m.chunk.Chunk) / float64(m.chunk.Total)
		s.WriteString("Progress: ")
		s.WriteString(m.progressBar.ViewAs(min(percent, 1)))
		s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
		s.WriteString("\n")
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(
			fmt.Sprintf("Chunk %d/%d  │  Elapsed: %s", m.chunk.Chunk, m.chunk.Total, formatDuration(elapsed))))
		s.WriteString("\n")
		return
	}
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(
		fmt.Sprintf("%d chunks  │  %d readings  │  Elapsed: %s", m.chunk.Chunk, m.readings, formatDuration(elapsed))))
	s.WriteString("\n")
}

func (m *Model) renderAnalysisProgress(s *strings.Builder) {
	if m.analysis.TotalFrames == 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Analysing..."))
		s.WriteString("\n")
		return
	}
	percent := float64(m.analysis.Frame) / float64(m.analysis.TotalFrames)
	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(min(percent, 1)))
	s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(
		fmt.Sprintf("Frame %d/%d", m.analysis.Frame, m.analysis.TotalFrames)))
	s.WriteString("\n")
}

func (m *Model) renderMeters(s *strings.Builder) {
	label := lipgloss.NewStyle().Faint(true)
	for i, db := range m.levels {
		s.WriteString(label.Render(fmt.Sprintf("ch%-2d ", i)))
		s.WriteString(makeLevelBar(db, m.peaks[i], meterWidth))
		s.WriteString(" ")
		s.WriteString(cli.FormatDBFS(db))
		s.WriteString(label.Render("  peak " + strings.TrimSpace(cli.FormatDBFS(m.peaks[i]))))
		s.WriteString("\n")
	}
}

func (m *Model) renderFailed() string {
	var s strings.Builder
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(cli.SignalRed).Render("✗ Session failed"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	if m.chunk.Chunk > 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(
			fmt.Sprintf("\n\nCaptured %d chunks before the failure", m.chunk.Chunk)))
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.SignalRed).
		Padding(1, 1).
		Render(s.String()) + "\n"
}

func (m *Model) renderComplete() string {
	var s strings.Builder

	heading := "✓ Recording Complete!"
	switch m.mode {
	case ModeMonitor:
		heading = "✓ Monitoring Complete!"
	case ModeAnalyze:
		heading = "✓ Analysis Complete!"
	}
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(cli.SignalLime).Render(heading))
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)
	row := func(label, value string) {
		s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render(fmt.Sprintf("%-12s", label)), value))
	}

	if r := m.result; r != nil {
		if rec := r.Recording; rec != nil {
			row("Audio:", fmt.Sprintf("%d chunks, %.2fs", rec.Chunks, rec.Duration().Seconds()))
			if rec.Dropped > 0 || rec.Retries > 0 {
				row("Faults:", fmt.Sprintf("%d dropped, %d retries", rec.Dropped, rec.Retries))
			}
		}
		if r.WAVPath != "" {
			row("WAV:", r.WAVPath)
		}
		if mat := r.Matrix; mat != nil {
			row("Mel:", fmt.Sprintf("%d bands × %d frames", mat.Bands, mat.Frames))
		}
		if r.PNGPath != "" {
			row("PNG:", r.PNGPath)
		}
		if m.analysisTime > 0 {
			row("Analysis:", formatDuration(m.analysisTime))
		}
	}

	if p := m.profile; p != nil {
		row("Readings:", fmt.Sprintf("%d", p.Readings))
		for i, c := range p.Channels {
			marker := ""
			switch {
			case len(p.Channels) < 2:
			case i == p.Loudest:
				marker = "  loudest"
			case i == p.Quietest:
				marker = "  quietest"
			}
			row(fmt.Sprintf("ch%d:", i), fmt.Sprintf("mean %s  peak %s%s",
				strings.TrimSpace(cli.FormatDBFS(c.MeanDBFS)),
				strings.TrimSpace(cli.FormatDBFS(c.PeakDBFS)),
				marker))
		}
	}

	row("Total time:", formatDuration(m.completionTime.Sub(m.startTime)))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.SignalViolet).
		Padding(1, 1).
		Render(s.String()) + "\n"
}
