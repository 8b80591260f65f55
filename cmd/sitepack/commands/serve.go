package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitepack/internal/devserver"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Host         string `name:"host" help:"Listen host (overrides dev_server.host)"`
	Port         int    `short:"p" name:"port" help:"Listen port (overrides dev_server.port)"`
	Output       string `short:"o" help:"Output directory (overrides output.directory)"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable the live reload endpoint and script injection"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if s.Host != "" {
		cfg.DevServer.Host = s.Host
	}
	if s.Port != 0 {
		cfg.DevServer.Port = s.Port
	}
	if s.Output != "" {
		cfg.Output.Directory = s.Output
	}
	if s.NoLiveReload {
		off := false
		cfg.DevServer.LiveReload = &off
	}

	srv, err := devserver.New(devserver.Options{Config: cfg, Mode: cfg.Mode, Logger: g.Logger})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
