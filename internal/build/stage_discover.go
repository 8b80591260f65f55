package build

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitepack/internal/assets"
	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/descriptor"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/pages"
	"git.home.luguber.info/inful/sitepack/internal/sprite"
	"git.home.luguber.info/inful/sitepack/internal/workspace"
)

func stagePrepareOutput(_ context.Context, bs *buildState) error {
	st, err := workspace.Begin(bs.outDir, !bs.cfg.CleanOutput(), bs.logger)
	if err != nil {
		return err
	}
	bs.staging = st
	bs.out = st.Fs()
	return nil
}

func stageDiscoverPages(_ context.Context, bs *buildState) error {
	sel, err := config.LoadPageSelection(bs.source, bs.cfg.Abs(bs.cfg.Pages.Selection))
	if err != nil {
		return err
	}
	reg := pages.Registry{FS: bs.source, Dir: bs.cfg.Abs(bs.cfg.Paths.Pages), Selection: sel}
	names, err := reg.Select()
	if err != nil {
		return err
	}
	entries := pages.GenerateEntries(reg.Dir, bs.cfg.Paths.TemplateExt, names)
	if bs.cfg.ValidatePages() {
		if err := pages.Validate(bs.source, entries); err != nil {
			return err
		}
	}

	desc, err := descriptor.ForMode(bs.mode, bs.cfg, entries)
	if err != nil {
		return err
	}
	table, err := assets.NewTable(desc.Rules)
	if err != nil {
		return err
	}
	bs.desc = desc
	bs.pageNames = names

	bs.sheet = sprite.New()
	if desc.HasPlugin(descriptor.PluginSprite) {
		for _, dir := range desc.Sprite.Include {
			n, err := bs.sheet.AddDir(bs.source, dir)
			if err != nil {
				return err
			}
			bs.logger.Debug("Sprite icons included", logfields.Path(dir), logfields.Count(n))
		}
	}
	bs.pipeline = assets.NewPipeline(assets.Options{
		Source:     bs.source,
		Output:     bs.out,
		Table:      table,
		Aliases:    assets.Aliases(desc.Aliases),
		PublicPath: desc.Output.PublicPath,
		Sprite:     bs.sheet,
		Logger:     bs.logger,
	})

	bs.logger.Info("Pages selected", logfields.Count(len(names)), slog.Any("pages", names))
	if len(names) == 0 {
		return errors.ValidationError(fmt.Sprintf("no pages selected in %s", reg.Dir)).
			WithPath(reg.Dir).Warning().Build()
	}
	return nil
}
