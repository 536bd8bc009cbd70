package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/linuxmatters/melcap/internal/cli"
	"github.com/linuxmatters/melcap/internal/config"
	"github.com/linuxmatters/melcap/internal/observe"
	"github.com/linuxmatters/melcap/internal/pipeline"
	"github.com/linuxmatters/melcap/internal/renderer"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// versionFlag prints the styled version and exits before any command runs.
type versionFlag bool

func (v versionFlag) BeforeReset(app *kong.Kong, vars kong.Vars) error {
	cli.PrintVersion(vars["version"])
	app.Exit(0)
	return nil
}

// Globals are accepted by every command.
type Globals struct {
	Config   string      `help:"YAML configuration file" type:"existingfile" placeholder:"FILE"`
	LogLevel string      `help:"Log level: debug, info, warn or error" placeholder:"LEVEL"`
	LogFile  string      `help:"Write logs to this file" placeholder:"FILE"`
	NoTUI    bool        `name:"no-tui" help:"Disable the terminal UI and log to stderr"`
	Metrics  bool        `help:"Log metric totals when the session ends"`
	Version  versionFlag `help:"Show version information"`
}

var CLI struct {
	Globals

	Record  RecordCmd  `cmd:"" help:"Record from the microphone array and export a mel spectrogram"`
	Monitor MonitorCmd `cmd:"" help:"Show live per-channel RMS levels"`
	Analyze AnalyzeCmd `cmd:"" help:"Compute the mel spectrogram of an audio file"`
	Devices DevicesCmd `cmd:"" help:"List audio input devices"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("melcap"),
		kong.Description(cli.Tagline),
		kong.Vars{
			"version": version,
			"seconds": strconv.Itoa(config.DefaultRecordSeconds),
			"wav":     config.DefaultWAVOutput,
			"png":     config.DefaultPNGOutput,
			"title":   renderer.DefaultTitle,
		},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, CLI.Globals, kctx.Command() != "devices")
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	err = kctx.Run(rt)
	if rerr := rt.close(); rerr != nil {
		rt.log.Warn("Metrics report failed", zap.Error(rerr))
	}
	_ = rt.log.Sync()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			cli.PrintWarning("interrupted")
			os.Exit(130)
		}
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// runtime is what every command's Run receives.
type runtime struct {
	ctx      context.Context
	cfg      config.Config
	log      *zap.Logger
	tui      bool
	sinks    []observe.Sink
	reporter *observe.Reporter
}

func newRuntime(ctx context.Context, g Globals, interactive bool) (*runtime, error) {
	cfg := config.Default()
	if g.Config != "" {
		var err error
		if cfg, err = config.Load(g.Config); err != nil {
			return nil, err
		}
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFile != "" {
		cfg.Log.File = g.LogFile
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	rt := &runtime{
		ctx: ctx,
		cfg: cfg,
		tui: interactive && !g.NoTUI && isatty.IsTerminal(os.Stdout.Fd()),
	}

	var err error
	switch {
	case cfg.Log.File != "":
		rt.log, err = observe.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	case rt.tui:
		rt.log = zap.NewNop()
	default:
		rt.log, err = observe.NewLogger(cfg.Log.Level, cfg.Log.Format)
	}
	if err != nil {
		return nil, err
	}

	var metrics *observe.Metrics
	if g.Metrics {
		// The report is written after the UI has exited
		reportLog := rt.log
		if rt.tui && cfg.Log.File == "" {
			if reportLog, err = observe.NewLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
				return nil, err
			}
		}
		rt.reporter = observe.NewReporter(reportLog)
		metrics, err = observe.NewMetrics(rt.reporter.Provider())
	} else {
		metrics, err = observe.NewMetrics(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	rt.sinks = append(rt.sinks, observe.NewMetricsSink(metrics))

	return rt, nil
}

// options returns the pipeline options shared by every command, plus extra.
func (rt *runtime) options(extra ...pipeline.Option) []pipeline.Option {
	opts := []pipeline.Option{pipeline.WithLogger(rt.log)}
	for _, s := range rt.sinks {
		opts = append(opts, pipeline.WithSink(s))
	}
	return append(opts, extra...)
}

func (rt *runtime) close() error {
	if rt.reporter == nil {
		return nil
	}
	ctx := context.Background()
	return errors.Join(rt.reporter.Report(ctx), rt.reporter.Shutdown(ctx))
}
