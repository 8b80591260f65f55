package config

const (
	DefaultSiteFile      = "site.yaml"
	DefaultSelectionFile = "pages.yaml"
	DefaultOutputDir     = "dist"
	DefaultPort          = 3000
	DefaultInlineLimit   = 8192
	DefaultHashLength    = 7
	DefaultPerfBudget    = 512000
	DefaultDebounceMS    = 300
)

// DefaultAliases mirrors the source tree layout so imports never need
// relative paths.
func DefaultAliases() map[string]string {
	return map[string]string{
		"~node-modules": "node_modules",
		"~src":          "src",
		"~pages":        "src/pages",
		"~blocks":       "src/blocks",
		"~templates":    "src/common/templates",
		"~js":           "src/common/js",
		"~css":          "src/common/css",
		"~assets":       "src/assets",
		"~images":       "src/assets/images",
		"~svg":          "src/assets/svg",
		"~media":        "src/assets/media",
		"~fonts":        "src/assets/fonts",
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Root: "."}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if m, err := ParseMode(string(cfg.Mode)); err == nil {
		cfg.Mode = m
	}
	if cfg.Site.Lang == "" {
		cfg.Site.Lang = "en"
	}

	p := &cfg.Paths
	if p.Source == "" {
		p.Source = "src"
	}
	if p.Entry == "" {
		p.Entry = "src/app.js"
	}
	if p.Pages == "" {
		p.Pages = "src/pages"
	}
	if p.Templates == "" {
		p.Templates = "src/common/templates"
	}
	if p.TemplateExt == "" {
		p.TemplateExt = "html"
	}
	if p.Fonts == "" {
		p.Fonts = "src/assets/fonts"
	}

	if cfg.Pages.Selection == "" {
		cfg.Pages.Selection = DefaultSelectionFile
	}
	if cfg.Pages.Validate == nil {
		cfg.Pages.Validate = boolPtr(true)
	}

	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Output.PublicPath == "" {
		cfg.Output.PublicPath = "/"
	}
	if cfg.Output.Clean == nil {
		cfg.Output.Clean = boolPtr(true)
	}

	if cfg.Assets.InlineLimit == 0 {
		cfg.Assets.InlineLimit = DefaultInlineLimit
	}
	if cfg.Assets.HashLength == 0 {
		cfg.Assets.HashLength = DefaultHashLength
	}

	if cfg.Sprite.Filename == "" {
		cfg.Sprite.Filename = "assets/images/sprite.[contenthash:7].svg"
	}
	if cfg.Sprite.Include == nil {
		cfg.Sprite.Include = []string{"src/assets/svg"}
	}

	d := &cfg.DevServer
	if d.Host == "" {
		d.Host = "localhost"
	}
	if d.Port == 0 {
		d.Port = DefaultPort
	}
	if d.LiveReload == nil {
		d.LiveReload = boolPtr(true)
	}
	if d.DebounceMS == 0 {
		d.DebounceMS = DefaultDebounceMS
	}
	if d.WatchIgnore == nil {
		d.WatchIgnore = []string{"node_modules"}
	}

	perf := &cfg.Performance
	if perf.Hints == "" {
		perf.Hints = HintsWarning
	}
	if perf.MaxEntrypointSize == 0 {
		perf.MaxEntrypointSize = DefaultPerfBudget
	}
	if perf.MaxAssetSize == 0 {
		perf.MaxAssetSize = DefaultPerfBudget
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = string(LogLevelInfo)
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = string(LogFormatText)
	}

	aliases := DefaultAliases()
	for k, v := range cfg.Aliases {
		aliases[k] = v
	}
	cfg.Aliases = aliases

	if cfg.Provide == nil {
		cfg.Provide = map[string]string{}
	}
	if cfg.Static == nil {
		cfg.Static = []StaticCopy{{From: "src/assets/favicons", To: "assets/favicons"}}
	}
}
