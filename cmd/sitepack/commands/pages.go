package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/pages"
)

// PagesCmd implements the 'pages' command.
type PagesCmd struct {
	Validate bool `help:"Fail when a selected page has no template or is listed twice"`
}

func (p *PagesCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	entries, err := selectEntries(g, cfg)
	if err != nil {
		return err
	}
	if p.Validate {
		if err := pages.Validate(g.Fs, entries); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tTEMPLATE\tOUTPUT")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.TemplatePath, e.OutputFile)
	}
	return tw.Flush()
}

// selectEntries applies the selection file to the pages directory.
func selectEntries(g *Global, cfg *config.Config) ([]pages.Descriptor, error) {
	sel, err := config.LoadPageSelection(g.Fs, cfg.Abs(cfg.Pages.Selection))
	if err != nil {
		return nil, err
	}
	reg := pages.Registry{FS: g.Fs, Dir: cfg.Abs(cfg.Paths.Pages), Selection: sel}
	names, err := reg.Select()
	if err != nil {
		return nil, err
	}
	return pages.GenerateEntries(reg.Dir, cfg.Paths.TemplateExt, names), nil
}
