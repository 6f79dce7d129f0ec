package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/schedule"
)

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	SiteFlags     `embed:""`
	RenderFlags   `embed:""`
	Every         time.Duration `help:"Rebuild interval, e.g. 15m" xor:"when"`
	Cron          string        `help:"Five-field cron expression" xor:"when"`
	MetricsListen string        `name:"metrics-listen" help:"Serve Prometheus metrics on this address, e.g. :9464"`
}

func (c *ScheduleCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.resolveConfig(c.SiteFlags, c.RenderFlags)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunSchedule(ctx, g.out(), cfg, schedule.Spec{Every: c.Every, Cron: c.Cron}, c.MetricsListen)
}

// RunSchedule builds once, then on every tick of spec until ctx is done.
func RunSchedule(ctx context.Context, w io.Writer, cfg *config.Config, spec schedule.Spec, metricsAddr string) error {
	if err := spec.Validate(); err != nil {
		return sberrors.InvalidConfig("schedule", err.Error())
	}
	env, err := newBuildEnv(cfg, metricsAddr != "")
	if err != nil {
		return err
	}
	defer env.Close()

	runner := newRebuildRunner(env, w, cfg)
	sched, err := schedule.New(spec, func() { runner.Trigger(build.TriggerScheduled) })
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			slog.Warn("Failed to stop scheduler", logfields.Error(err))
		}
	}()

	if metricsAddr != "" {
		stop := serveMetrics(metricsAddr, env.recorder)
		defer stop()
	}

	runner.Trigger(build.TriggerInitial)
	sched.Start()
	if next, err := sched.NextRun(); err == nil {
		_, _ = fmt.Fprintf(w, "Scheduled rebuilds %s, next at %s\n", spec, next.Format(time.RFC3339))
	}

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
