package build

import (
	"context"

	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/render"
)

func stageRenderPages(ctx context.Context, bs *buildState) error {
	r, err := render.New(render.Options{
		FS:           bs.source,
		Pipeline:     bs.pipeline,
		TemplatesDir: bs.desc.Templates,
		SpriteDirs:   bs.desc.Sprite.Include,
		PublicPath:   bs.desc.Output.PublicPath,
		Site:         bs.desc.Site,
		Mode:         bs.desc.Mode,
		Logger:       bs.logger,
	})
	if err != nil {
		return err
	}
	bs.rendered, err = r.RenderAll(ctx, bs.desc.Pages)
	return err
}

func stageWritePages(ctx context.Context, bs *buildState) error {
	opts := render.FinishOptions{
		StyleURL:   bs.final.StyleURL,
		ScriptURL:  bs.final.ScriptURL,
		SpriteURL:  bs.spriteURL,
		LiveReload: bs.req.LiveReload,
		Minifier:   bs.minifier,
	}
	for _, p := range bs.rendered {
		if err := ctx.Err(); err != nil {
			return err
		}
		html, err := render.Finish(p, opts)
		if err != nil {
			return err
		}
		name := p.Descriptor.OutputFile
		if err := writeFile(bs.out, name, html); err != nil {
			return err
		}
		bs.files = append(bs.files, outputFile{Logical: name, Name: name, Size: int64(len(html))})
		bs.logger.Debug("Page written", logfields.Page(p.Descriptor.Name), logfields.Output(name), logfields.Size(int64(len(html))))
	}
	bs.report.Pages = len(bs.rendered)
	return nil
}
