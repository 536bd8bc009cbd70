package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/linuxmatters/melcap/internal/capture"
	"github.com/linuxmatters/melcap/internal/cli"
	"github.com/linuxmatters/melcap/internal/config"
	"github.com/linuxmatters/melcap/internal/pipeline"
	"github.com/linuxmatters/melcap/internal/renderer"
	"github.com/linuxmatters/melcap/internal/ui"
)

// CaptureFlags override the capture section of the configuration.
type CaptureFlags struct {
	Device    string `short:"d" help:"Input device index or name substring" placeholder:"DEVICE"`
	Channels  int    `short:"c" help:"Channels to capture (1, or 6 with the i6 firmware)"`
	Rate      int    `help:"Sample rate in Hz"`
	ChunkSize int    `help:"Sample-frames per read"`
	Replay    string `help:"Replay a WAV file instead of capturing from a device" type:"existingfile" placeholder:"FILE"`
}

// apply returns cfg with the flags layered on top. A replay takes the
// file's format unless a flag says otherwise.
func (f CaptureFlags) apply(cfg config.Config) (config.Config, error) {
	c := &cfg.Capture
	if f.Replay != "" {
		format, err := capture.Probe(f.Replay)
		if err != nil {
			return cfg, err
		}
		c.SampleRate, c.Channels, c.BitDepth = format.SampleRate, format.Channels, format.BitDepth
	}
	if f.Device != "" {
		c.Device = f.Device
	}
	if f.Channels > 0 {
		c.Channels = f.Channels
	}
	if f.Rate > 0 {
		c.SampleRate = f.Rate
	}
	if f.ChunkSize > 0 {
		c.ChunkSize = f.ChunkSize
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid capture settings: %w", err)
	}
	return cfg, nil
}

func (f CaptureFlags) source() capture.Source {
	if f.Replay != "" {
		return capture.NewReplay(f.Replay)
	}
	return capture.NewPortAudio()
}

func (f CaptureFlags) heading(c config.Capture) string {
	h := fmt.Sprintf("%dch  %d Hz  %d-bit", c.Channels, c.SampleRate, c.BitDepth)
	if f.Replay != "" {
		return h + "  " + filepath.Base(f.Replay)
	}
	return h
}

// RecordCmd captures a fixed duration, writes the WAV and the spectrogram.
type RecordCmd struct {
	CaptureFlags `embed:""`

	Seconds int    `short:"s" help:"Recording length in seconds" default:"${seconds}"`
	Output  string `short:"o" help:"Output WAV file (empty to skip)" default:"${wav}" placeholder:"FILE"`
	PNG     string `help:"Output spectrogram PNG (empty to skip)" default:"${png}" placeholder:"FILE"`
	Title   string `help:"Spectrogram title" default:"${title}"`
}

func (r *RecordCmd) Run(rt *runtime) error {
	cfg, err := r.apply(rt.cfg)
	if err != nil {
		return err
	}
	if r.Seconds <= 0 {
		return fmt.Errorf("--seconds must be > 0, got %d", r.Seconds)
	}

	ro := pipeline.RunOptions{
		Duration: time.Duration(r.Seconds) * time.Second,
		WAVPath:  r.Output,
		PNGPath:  r.PNG,
		Title:    r.Title,
	}
	src := r.source()

	if !rt.tui {
		rt.log.Info("Recording", zap.Stringer("capture", cfg.Capture), zap.Duration("duration", ro.Duration))
		res, err := pipeline.Run(rt.ctx, src, cfg, ro, rt.options()...)
		if err != nil {
			return err
		}
		printResult("Recording complete", res)
		return nil
	}

	return rt.runUI(ui.ModeRecord, r.heading(cfg.Capture), func(ctx context.Context, sink *ui.Sink) tea.Msg {
		res, err := pipeline.Run(ctx, src, cfg, ro, rt.options(
			pipeline.WithSink(sink),
			pipeline.WithLevels(cfg.Capture.ChunksPerSecond()/4+1),
			pipeline.WithProgress(sink.Progress(8)),
		)...)
		return ui.RecordComplete{Result: res, Err: err}
	})
}

// MonitorCmd prints per-channel RMS readings until stopped.
type MonitorCmd struct {
	CaptureFlags `embed:""`

	Readings int `short:"n" help:"Stop after this many readings (0 runs until interrupted)"`
	Every    int `help:"Chunks per reading (0 is one reading per second)"`
}

func (m *MonitorCmd) Run(rt *runtime) error {
	cfg, err := m.apply(rt.cfg)
	if err != nil {
		return err
	}
	if m.Readings > 0 {
		cfg.Monitor.Readings = m.Readings
	}
	if m.Every > 0 {
		cfg.Monitor.ChunksPerReading = m.Every
	}
	src := m.source()

	if !rt.tui {
		readings, err := pipeline.Monitor(rt.ctx, src, cfg, rt.options()...)
		profile := pipeline.Summarize(readings, cfg.Capture.BitDepth)
		if len(readings) > 0 {
			printProfile(profile)
		}
		if err != nil && !isInterrupt(rt.ctx) {
			return err
		}
		return nil
	}

	return rt.runUI(ui.ModeMonitor, m.heading(cfg.Capture), func(ctx context.Context, sink *ui.Sink) tea.Msg {
		readings, err := pipeline.Monitor(ctx, src, cfg, rt.options(pipeline.WithSink(sink))...)
		return ui.MonitorComplete{Profile: pipeline.Summarize(readings, cfg.Capture.BitDepth), Err: err}
	})
}

// AnalyzeCmd computes the spectrogram of an existing recording.
type AnalyzeCmd struct {
	File  string `arg:"" help:"WAV, MP3 or FLAC file" type:"existingfile"`
	PNG   string `help:"Output spectrogram PNG" default:"${png}" placeholder:"FILE"`
	Title string `help:"Spectrogram title (defaults to the file name)"`
}

func (a *AnalyzeCmd) Run(rt *runtime) error {
	title := a.Title
	if title == "" {
		title = filepath.Base(a.File)
	}

	analyze := func(opts ...pipeline.Option) (*pipeline.Result, error) {
		m, err := pipeline.AnalyzeFile(a.File, rt.cfg.Analysis, rt.options(opts...)...)
		if err != nil {
			return nil, err
		}
		res := &pipeline.Result{Matrix: m}
		if a.PNG != "" {
			if err := renderer.SaveSpectrogramPNG(a.PNG, m, renderer.Options{Title: title}); err != nil {
				return res, err
			}
			res.PNGPath = a.PNG
		}
		return res, nil
	}

	if !rt.tui {
		res, err := analyze()
		if err != nil {
			return err
		}
		printResult("Analysis complete", res)
		return nil
	}

	return rt.runUI(ui.ModeAnalyze, filepath.Base(a.File), func(_ context.Context, sink *ui.Sink) tea.Msg {
		res, err := analyze(pipeline.WithSink(sink), pipeline.WithProgress(sink.Progress(8)))
		return ui.RecordComplete{Result: res, Err: err}
	})
}

// DevicesCmd lists the input devices PortAudio can see.
type DevicesCmd struct{}

func (d *DevicesCmd) Run(rt *runtime) error {
	devices, err := capture.ListDevices()
	if err != nil {
		return err
	}

	cli.PrintSection("Input devices")
	found := false
	for _, dev := range devices {
		if dev.MaxInputChannels == 0 {
			continue
		}
		found = true
		marker := ""
		if dev.Default {
			marker = " " + cli.SuccessStyle.Render("(default)")
		}
		fmt.Printf("  %s %s %s%s\n",
			cli.HighlightStyle.Render(fmt.Sprintf("%2d", dev.Index)),
			dev.Name,
			cli.KeyStyle.Render(fmt.Sprintf("%s, %d in, %.0f Hz", dev.HostAPI, dev.MaxInputChannels, dev.DefaultSampleRate)),
			marker)
	}
	if !found {
		cli.PrintWarning("no input devices found")
	}
	return nil
}

// runUI runs work on its own goroutine while the terminal UI shows its
// events. work's return value is the completion message.
func (rt *runtime) runUI(mode ui.Mode, heading string, work func(context.Context, *ui.Sink) tea.Msg) error {
	ctx, cancel := context.WithCancel(rt.ctx)
	defer cancel()

	model := ui.NewModel(mode, heading, cancel)
	p := tea.NewProgram(model)
	sink := ui.NewSink(p)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Send(work(ctx, sink))
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("running UI: %w", err)
	}
	cancel()
	<-done

	fmt.Print(model.Summary())
	return model.Err()
}

func isInterrupt(ctx context.Context) bool {
	return ctx.Err() != nil
}

func printResult(heading string, res *pipeline.Result) {
	var rows [][2]string
	if rec := res.Recording; rec != nil {
		rows = append(rows, [2]string{"Audio", fmt.Sprintf("%d chunks, %s", rec.Chunks, cli.FormatDuration(rec.Duration()))})
		if rec.Dropped > 0 || rec.Retries > 0 {
			rows = append(rows, [2]string{"Faults", fmt.Sprintf("%d dropped, %d retries", rec.Dropped, rec.Retries)})
		}
	}
	if res.WAVPath != "" {
		rows = append(rows, [2]string{"WAV", res.WAVPath})
	}
	if m := res.Matrix; m != nil {
		rows = append(rows, [2]string{"Mel", fmt.Sprintf("%d bands × %d frames", m.Bands, m.Frames)})
	}
	if res.PNGPath != "" {
		rows = append(rows, [2]string{"PNG", res.PNGPath})
	}
	cli.PrintSummary(heading, rows)
}

func printProfile(p pipeline.LevelProfile) {
	rows := [][2]string{{"Readings", fmt.Sprint(p.Readings)}}
	for i, c := range p.Channels {
		rows = append(rows, [2]string{fmt.Sprintf("ch%d", i),
			fmt.Sprintf("mean %s  peak %s", cli.FormatDBFS(c.MeanDBFS), cli.FormatDBFS(c.PeakDBFS))})
	}
	if len(p.Channels) > 1 {
		rows = append(rows,
			[2]string{"Loudest", fmt.Sprintf("ch%d", p.Loudest)},
			[2]string{"Quietest", fmt.Sprintf("ch%d", p.Quietest)})
	}
	cli.PrintSummary("Monitoring complete", rows)
}
