package build

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/assets"
	"git.home.luguber.info/inful/sitepack/internal/bundler"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/minify"
)

const spriteLogical = "sprite.svg"

func stageBundleScripts(ctx context.Context, bs *buildState) error {
	b, err := bundler.New(bs.desc, bs.pipeline, bs.logger).Bundle(ctx)
	if err != nil {
		return err
	}
	bs.bundle = b
	return nil
}

// stageEmitBundle writes the sprite sheet, then the bundle with the sprite
// URL substituted, then records the files the asset pipeline copied.
func stageEmitBundle(_ context.Context, bs *buildState) error {
	if bs.sheet.Len() > 0 {
		content := bs.sheet.Render()
		if bs.desc.Minify {
			minified, err := bs.minifier.Bytes(minify.TypeSVG, content)
			if err != nil {
				return errors.WrapError(err, errors.CategoryAsset, "minify sprite sheet").Build()
			}
			content = minified
		}
		name := assets.ExpandName(bs.desc.Sprite.Filename, spriteLogical, content)
		if err := writeFile(bs.out, name, content); err != nil {
			return err
		}
		bs.spriteURL = assets.JoinURL(bs.desc.Output.PublicPath, name)
		bs.files = append(bs.files, outputFile{Logical: spriteLogical, Name: name, Size: int64(len(content))})
		bs.logger.Debug("Sprite sheet written", logfields.Output(name), logfields.Count(bs.sheet.Len()))
	}

	bs.final = bs.bundle.Finalize(bs.desc.Output, bs.spriteURL)
	for _, f := range bs.final.Files {
		if err := writeFile(bs.out, f.Name, f.Contents); err != nil {
			return err
		}
		bs.files = append(bs.files, outputFile{
			Logical: f.Logical,
			Name:    f.Name,
			Size:    int64(len(f.Contents)),
			Entry:   !strings.HasSuffix(f.Name, ".map"),
		})
	}

	emitted := bs.pipeline.Emitted()
	for _, e := range emitted {
		logical := e.Source
		if rel, err := filepath.Rel(bs.cfg.Root, e.Source); err == nil {
			logical = filepath.ToSlash(rel)
		}
		bs.files = append(bs.files, outputFile{Logical: logical, Name: e.Output, Size: e.Size})
	}
	bs.report.Assets = AssetCounts{Copied: len(emitted), Inlined: bs.pipeline.Inlined(), Symbols: bs.sheet.Len()}
	return nil
}

func writeFile(fsys afero.Fs, name string, data []byte) error {
	path := filepath.FromSlash(name)
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").WithPath(path).Build()
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write output file").WithPath(path).Build()
	}
	return nil
}
