package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitepack/cmd/sitepack/commands"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/version"
)

func main() {
	var cli commands.CLI
	global := commands.NewGlobal()
	ctx := kong.Parse(&cli,
		kong.Name("sitepack"),
		kong.Description("Multi-page static site builder with an esbuild asset pipeline."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global, &cli),
	)
	err := ctx.Run(global, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
