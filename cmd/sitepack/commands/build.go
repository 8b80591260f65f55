package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitepack/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output     string `short:"o" help:"Output directory (overrides output.directory)"`
	LiveReload bool   `name:"live-reload" help:"Inject the live reload client into every page"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	svc := build.NewService(build.WithLogger(g.Logger))
	res, err := svc.Run(ctx, build.Request{
		Config:     cfg,
		Mode:       cfg.Mode,
		OutputDir:  b.Output,
		LiveReload: b.LiveReload,
	})
	if res != nil && res.Report != nil {
		_, _ = fmt.Fprintf(g.Stdout, "%s: %s\n", res.Status, res.Report.Summary())
		if res.Status == build.StatusSuccess {
			_, _ = fmt.Fprintf(g.Stdout, "output: %s\n", res.OutputPath)
		}
	}
	return err
}
