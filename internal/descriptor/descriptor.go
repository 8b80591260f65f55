// Package descriptor assembles the build descriptor: the base settings
// shared by every build plus one environment overlay.
package descriptor

import (
	"fmt"
	"maps"
	"slices"

	"git.home.luguber.info/inful/sitepack/internal/assets"
	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/pages"
)

// Plugin names. Stages consult the plugin list to decide whether to run.
const (
	PluginHTMLPages      = "html-pages"
	PluginSprite         = "sprite"
	PluginCSSExtract     = "css-extract"
	PluginProvide        = "provide"
	PluginClean          = "clean"
	PluginCopy           = "copy"
	PluginLiveReload     = "live-reload"
	PluginCSSMinimizer   = "css-minimizer"
	PluginTranspile      = "transpile"
	PluginImageMinimizer = "image-minimizer"
)

// Devtool values.
const (
	DevtoolNone      = ""
	DevtoolSourceMap = "source-map"
)

// Descriptor is everything the bundler and renderer need for one build.
type Descriptor struct {
	Mode        config.Mode         `yaml:"mode" json:"mode"`
	Root        string              `yaml:"root" json:"root"`
	Entry       Entry               `yaml:"entry" json:"entry"`
	Output      Output              `yaml:"output" json:"output"`
	Aliases     map[string]string   `yaml:"aliases" json:"aliases"`
	Rules       []assets.Rule       `yaml:"rules" json:"rules"`
	Styles      []StyleRule         `yaml:"styles,omitempty" json:"styles,omitempty"`
	Pages       []pages.Descriptor  `yaml:"pages" json:"pages"`
	Templates   string              `yaml:"templates" json:"templates"`
	Plugins     []string            `yaml:"plugins" json:"plugins"`
	Devtool     string              `yaml:"devtool,omitempty" json:"devtool,omitempty"`
	Target      string              `yaml:"target" json:"target"`
	Minify      bool                `yaml:"minify" json:"minify"`
	Performance *Performance        `yaml:"performance,omitempty" json:"performance,omitempty"`
	DevServer   *DevServer          `yaml:"dev_server,omitempty" json:"dev_server,omitempty"`
	WatchIgnore []string            `yaml:"watch_ignore,omitempty" json:"watch_ignore,omitempty"`
	Provide     map[string]string   `yaml:"provide,omitempty" json:"provide,omitempty"`
	Sprite      Sprite              `yaml:"sprite" json:"sprite"`
	Static      []config.StaticCopy `yaml:"static,omitempty" json:"static,omitempty"`
	Site        config.SiteConfig   `yaml:"site" json:"site"`
}

// Entry is the script entry point.
type Entry struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// Output holds the output directory and file naming templates.
type Output struct {
	Dir        string `yaml:"dir" json:"dir"`
	PublicPath string `yaml:"public_path" json:"public_path"`
	Script     string `yaml:"script" json:"script"`
	Style      string `yaml:"style" json:"style"`
}

// StyleRule configures stylesheet handling.
type StyleRule struct {
	Match      string `yaml:"match" json:"match"`
	Extract    bool   `yaml:"extract" json:"extract"`
	Autoprefix bool   `yaml:"autoprefix" json:"autoprefix"`
}

// Performance holds size budgets in bytes.
type Performance struct {
	Hints             string `yaml:"hints" json:"hints"`
	MaxEntrypointSize int64  `yaml:"max_entrypoint_size" json:"max_entrypoint_size"`
	MaxAssetSize      int64  `yaml:"max_asset_size" json:"max_asset_size"`
}

// DevServer configures the development server.
type DevServer struct {
	Host       string `yaml:"host" json:"host"`
	Port       int    `yaml:"port" json:"port"`
	LiveReload bool   `yaml:"live_reload" json:"live_reload"`
	DebounceMS int    `yaml:"debounce_ms" json:"debounce_ms"`
}

// Sprite configures the sprite sheet.
type Sprite struct {
	Filename string   `yaml:"filename" json:"filename"`
	Include  []string `yaml:"include,omitempty" json:"include,omitempty"`
}

// HasPlugin reports whether name is in the plugin list.
func (d Descriptor) HasPlugin(name string) bool {
	return slices.Contains(d.Plugins, name)
}

// Base builds the mode independent descriptor. All paths are resolved
// against the project root.
func Base(cfg *config.Config, entries []pages.Descriptor) Descriptor {
	hash := cfg.Assets.HashLength
	aliases := make(map[string]string, len(cfg.Aliases))
	for name, dir := range cfg.Aliases {
		aliases[name] = cfg.Abs(dir)
	}
	include := make([]string, len(cfg.Sprite.Include))
	for i, dir := range cfg.Sprite.Include {
		include[i] = cfg.Abs(dir)
	}
	return Descriptor{
		Root:  cfg.Root,
		Entry: Entry{Name: "bundle", Path: cfg.Abs(cfg.Paths.Entry)},
		Output: Output{
			Dir:        cfg.Abs(cfg.Output.Directory),
			PublicPath: cfg.Output.PublicPath,
			Script:     fmt.Sprintf("js/[name].[contenthash:%d].js", hash),
			Style:      fmt.Sprintf("css/[name].[contenthash:%d].css", hash),
		},
		Aliases:   aliases,
		Rules:     assets.DefaultRules(cfg.Abs(cfg.Paths.Fonts), cfg.Assets.InlineLimit, hash),
		Pages:     slices.Clone(entries),
		Templates: cfg.Abs(cfg.Paths.Templates),
		Plugins:   basePlugins(cfg),
		Target:    "esnext",
		Provide:   maps.Clone(cfg.Provide),
		Sprite:    Sprite{Filename: cfg.Sprite.Filename, Include: include},
		Static:    slices.Clone(cfg.Static),
		Site:      cfg.Site,
	}
}

func basePlugins(cfg *config.Config) []string {
	plugins := []string{PluginHTMLPages, PluginSprite, PluginCSSExtract}
	if len(cfg.Provide) > 0 {
		plugins = append(plugins, PluginProvide)
	}
	if cfg.CleanOutput() {
		plugins = append(plugins, PluginClean)
	}
	if len(cfg.Static) > 0 {
		plugins = append(plugins, PluginCopy)
	}
	return plugins
}
