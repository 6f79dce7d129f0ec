package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	SiteFlags `embed:""`
	Limit     int    `short:"n" default:"20" help:"Show at most this many builds (0 for all)"`
	Build     string `name:"build" help:"Show the documents rendered by this build ID"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.resolveConfig(h.SiteFlags, RenderFlags{})
	if err != nil {
		return err
	}
	return RunHistory(context.Background(), g.out(), cfg, h.Limit, h.Build)
}

// RunHistory prints recorded builds, newest first, or the documents of a
// single build when buildID is set.
func RunHistory(ctx context.Context, w io.Writer, cfg *config.Config, limit int, buildID string) error {
	if cfg.History.Path == "" {
		return sberrors.InvalidConfig("history.path", "build history is not enabled")
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if buildID != "" {
		pages, err := store.Documents(ctx, buildID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(tw, "KEY\tTEMPLATE\tOUTPUT\tERROR")
		for _, p := range pages {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Key, p.Template, p.Output, p.Error)
		}
		return tw.Flush()
	}

	records, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No builds recorded")
		return err
	}
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tOUTCOME\tRENDERED\tDURATION\tREVISION")
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Outcome,
			r.Rendered, r.Documents, r.Duration.Round(time.Millisecond), r.Revision)
	}
	return tw.Flush()
}
