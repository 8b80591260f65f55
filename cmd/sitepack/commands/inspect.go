package commands

import (
	"git.home.luguber.info/inful/sitepack/internal/descriptor"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

// InspectCmd implements the 'inspect' command.
type InspectCmd struct {
	Format string `short:"f" enum:"yaml,json" default:"yaml" help:"Output format (yaml|json)"`
}

func (i *InspectCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	entries, err := selectEntries(g, cfg)
	if err != nil {
		return err
	}
	desc, err := descriptor.ForMode(cfg.Mode, cfg, entries)
	if err != nil {
		return err
	}
	if err := desc.Encode(g.Stdout, i.Format); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode descriptor").Build()
	}
	return nil
}
