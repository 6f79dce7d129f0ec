package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SiteFlags     `embed:""`
	RenderFlags   `embed:""`
	Debounce      time.Duration `default:"300ms" help:"Quiet period after the last change before rebuilding"`
	MetricsListen string        `name:"metrics-listen" help:"Serve Prometheus metrics on this address, e.g. :9464"`
}

func (c *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.resolveConfig(c.SiteFlags, c.RenderFlags)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunWatch(ctx, g.out(), cfg, c.Debounce, c.MetricsListen)
}

// RunWatch builds once, then rebuilds on every debounced change under the
// source directory until ctx is done.
func RunWatch(ctx context.Context, w io.Writer, cfg *config.Config, debounce time.Duration, metricsAddr string) error {
	env, err := newBuildEnv(cfg, metricsAddr != "")
	if err != nil {
		return err
	}
	defer env.Close()

	runner := newRebuildRunner(env, w, cfg)
	watcher, err := watch.New(cfg.Source, func() { runner.Trigger(build.TriggerWatch) }, cfg.Destination)
	if err != nil {
		return err
	}
	watcher.WithDebounce(debounce)
	if sameDir(cfg.Source, cfg.Destination) {
		watcher.IgnoreOutputs(cfg.OutputExt(), cfg.PostsPath(), cfg.TemplatesPath())
	}

	if metricsAddr != "" {
		stop := serveMetrics(metricsAddr, env.recorder)
		defer stop()
	}

	_, _ = fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", cfg.Source)
	runner.Trigger(build.TriggerInitial)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		err := watcher.Run(ctx)
		if err != nil {
			cancel()
		}
		errCh <- err
	}()

	runErr := runner.Run(ctx)
	watchErr := <-errCh
	if watchErr != nil {
		return watchErr
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// newRebuildRunner returns a Runner whose builds log failures instead of
// stopping the loop.
func newRebuildRunner(env *buildEnv, w io.Writer, cfg *config.Config) *build.Runner {
	return build.NewRunner(func(ctx context.Context, trigger build.TriggerType) {
		slog.Info("Rebuilding site", slog.String("trigger", string(trigger)))
		if _, err := env.Build(ctx, w, cfg); err != nil && ctx.Err() == nil {
			slog.Error("Rebuild failed", logfields.Error(err))
		}
	})
}

// serveMetrics exposes rec on addr until the returned stop func is called.
func serveMetrics(addr string, rec *metrics.PrometheusRecorder) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(rec.Registry()))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("Serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
