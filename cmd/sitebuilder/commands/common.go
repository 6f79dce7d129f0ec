package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

// Global carries state shared by every subcommand.
type Global struct {
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (defaults to sitebuilder.yaml in the source directory)"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" enum:"text,json" default:"text" help:"Log output format (text or json)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the site once"`
	Watch    WatchCmd    `cmd:"" help:"Build, then rebuild whenever the source changes"`
	Schedule ScheduleCmd `cmd:"" help:"Rebuild on a fixed interval or cron expression"`
	List     ListCmd     `cmd:"" help:"Print the document keys and the template each one uses"`
	History  HistoryCmd  `cmd:"" help:"List recorded builds"`
	Init     InitCmd     `cmd:"" help:"Scaffold a new site"`

	logOut io.Writer `kong:"-"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	w := c.logOut
	if w == nil {
		w = os.Stderr
	}
	slog.SetDefault(NewLogger(w, c.Verbose, c.LogFormat))
	return nil
}

// NewLogger builds the process logger. Verbose wins over SITEBUILDER_LOG_LEVEL.
func NewLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	level := config.NormalizeLogLevel(os.Getenv("SITEBUILDER_LOG_LEVEL"))
	if verbose {
		level = config.LogLevelDebug
	}
	opts := &slog.HandlerOptions{Level: level.Slog()}
	if config.NormalizeLogFormat(format) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SiteFlags selects the source and destination directories.
type SiteFlags struct {
	Source string `short:"s" help:"Site source directory (default ./)"`
	Dest   string `short:"d" name:"dest" help:"Output directory (default ./_site/)"`
}

// RenderFlags tune the render stage.
type RenderFlags struct {
	Workers    int  `help:"Number of documents rendered in parallel"`
	BestEffort bool `name:"best-effort" help:"Keep rendering remaining documents after one fails"`
}

// resolveConfig merges the config file with command-line overrides.
func (c *CLI) resolveConfig(site SiteFlags, render RenderFlags) (*config.Config, error) {
	return config.Resolve(config.Overrides{
		ConfigPath:  c.Config,
		Source:      site.Source,
		Destination: site.Dest,
		Workers:     render.Workers,
		BestEffort:  render.BestEffort,
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// buildEnv owns the collaborators of a build.Service for the lifetime of a
// command.
type buildEnv struct {
	service  *build.Service
	recorder *metrics.PrometheusRecorder
	history  history.Store
	notifier notify.Notifier
	textfile string
}

// newBuildEnv wires the optional history store, notifier and metrics
// recorder described by cfg. withMetrics forces a Prometheus recorder even
// without a textfile target.
func newBuildEnv(cfg *config.Config, withMetrics bool) (*buildEnv, error) {
	env := &buildEnv{textfile: cfg.Metrics.Textfile}
	var opts []build.Option

	if withMetrics || env.textfile != "" {
		env.recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, build.WithRecorder(env.recorder))
	}
	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		env.history = store
		opts = append(opts, build.WithHistory(store))
	}
	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			env.Close()
			return nil, err
		}
		pub.WithRetry(retry.NewPolicy(retry.BackoffMode(cfg.Notify.Backoff), 0, 0, cfg.Notify.Retries))
		env.notifier = pub
		opts = append(opts, build.WithNotifier(pub))
	}
	env.service = build.NewService(opts...)
	return env, nil
}

// Build runs one build and prints its summary line.
func (e *buildEnv) Build(ctx context.Context, w io.Writer, cfg *config.Config) (*build.Result, error) {
	res, err := e.service.Run(ctx, cfg)
	if e.recorder != nil && e.textfile != "" {
		if werr := e.recorder.WriteTextfile(e.textfile); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(e.textfile), logfields.Error(werr))
		}
	}
	_, _ = fmt.Fprintf(w, "Build %s %s\n", res.BuildID, res.Summary())
	return res, err
}

// Close releases the history store and notifier connection.
func (e *buildEnv) Close() {
	if e.notifier != nil {
		e.notifier.Close()
	}
	if e.history != nil {
		if err := e.history.Close(); err != nil {
			slog.Warn("Failed to close history store", logfields.Error(err))
		}
	}
}
