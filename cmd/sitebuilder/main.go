package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/cmd/sitebuilder/commands"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("sitebuilder"),
		kong.Description("Build a static site from templates and front-matter documents."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Stdout: os.Stdout}
	if err := ctx.Run(global, cli); err != nil {
		sberrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
