package commands

import (
	"context"
	"fmt"
	"io"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SiteFlags   `embed:""`
	RenderFlags `embed:""`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile format after the build"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.resolveConfig(b.SiteFlags, b.RenderFlags)
	if err != nil {
		return err
	}
	if b.MetricsFile != "" {
		cfg.Metrics.Textfile = b.MetricsFile
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunBuild(ctx, g.out(), cfg)
}

// RunBuild performs a single build with the collaborators cfg enables.
func RunBuild(ctx context.Context, w io.Writer, cfg *config.Config) error {
	// Provide friendly user-facing messages on stdout.
	_, _ = fmt.Fprintf(w, "Building %s -> %s\n", cfg.Source, cfg.Destination)

	env, err := newBuildEnv(cfg, false)
	if err != nil {
		return err
	}
	defer env.Close()

	_, err = env.Build(ctx, w, cfg)
	return err
}
