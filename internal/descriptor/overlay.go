package descriptor

import (
	"fmt"
	"maps"
	"slices"

	"dario.cat/mergo"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/pages"
)

// ProductionTarget is the script syntax level production builds lower to.
const ProductionTarget = "es2017"

// Development returns the development overlay.
func Development(cfg *config.Config) Descriptor {
	return Descriptor{
		Mode:    config.ModeDevelopment,
		Devtool: DevtoolSourceMap,
		DevServer: &DevServer{
			Host:       cfg.DevServer.Host,
			Port:       cfg.DevServer.Port,
			LiveReload: cfg.LiveReload(),
			DebounceMS: cfg.DevServer.DebounceMS,
		},
		WatchIgnore: slices.Clone(cfg.DevServer.WatchIgnore),
		Plugins:     []string{PluginLiveReload},
		Styles:      []StyleRule{{Match: "*.css", Extract: true}},
	}
}

// Production returns the production overlay.
func Production(cfg *config.Config) Descriptor {
	return Descriptor{
		Mode:    config.ModeProduction,
		Devtool: DevtoolNone,
		Minify:  true,
		Target:  ProductionTarget,
		Performance: &Performance{
			Hints:             cfg.Performance.Hints,
			MaxEntrypointSize: cfg.Performance.MaxEntrypointSize,
			MaxAssetSize:      cfg.Performance.MaxAssetSize,
		},
		Plugins: []string{PluginCSSMinimizer, PluginTranspile, PluginImageMinimizer},
		Styles:  []StyleRule{{Match: "*.css", Extract: true, Autoprefix: true}},
	}
}

// Apply merges overlay onto base. Non-zero scalars in the overlay replace
// the base value; lists are appended; maps merge by key. base is not
// modified.
func Apply(base, overlay Descriptor) (Descriptor, error) {
	out := base.clone()
	if err := mergo.Merge(&out, overlay, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return Descriptor{}, errors.WrapError(err, errors.CategoryInternal, "merge build descriptor overlay").Build()
	}
	return out, nil
}

// ForMode builds the base descriptor and applies the overlay for mode.
func ForMode(mode config.Mode, cfg *config.Config, entries []pages.Descriptor) (Descriptor, error) {
	var overlay Descriptor
	switch mode {
	case config.ModeDevelopment:
		overlay = Development(cfg)
	case config.ModeProduction:
		overlay = Production(cfg)
	default:
		return Descriptor{}, errors.ConfigError(fmt.Sprintf("unknown build mode %q", mode)).WithField("mode").Build()
	}
	return Apply(Base(cfg, entries), overlay)
}

func (d Descriptor) clone() Descriptor {
	out := d
	out.Aliases = maps.Clone(d.Aliases)
	out.Rules = slices.Clone(d.Rules)
	out.Styles = slices.Clone(d.Styles)
	out.Pages = slices.Clone(d.Pages)
	out.Plugins = slices.Clone(d.Plugins)
	out.WatchIgnore = slices.Clone(d.WatchIgnore)
	out.Provide = maps.Clone(d.Provide)
	out.Static = slices.Clone(d.Static)
	out.Sprite.Include = slices.Clone(d.Sprite.Include)
	if d.Performance != nil {
		p := *d.Performance
		out.Performance = &p
	}
	if d.DevServer != nil {
		s := *d.DevServer
		out.DevServer = &s
	}
	return out
}
