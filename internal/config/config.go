package config

import (
	"path/filepath"

	"git.home.luguber.info/inful/sitepack/internal/foundation/normalization"
)

// Mode selects the environment overlay applied on top of the base build.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

var modeNormalizer = normalization.NewNormalizer("mode", map[string]Mode{
	"development": ModeDevelopment,
	"dev":         ModeDevelopment,
	"production":  ModeProduction,
	"prod":        ModeProduction,
}, ModeDevelopment)

// ParseMode accepts the long and short spellings of a build mode.
func ParseMode(raw string) (Mode, error) {
	return modeNormalizer.Parse(raw)
}

func (m Mode) String() string { return string(m) }

// Config is the site configuration read from site.yaml or site.toml.
type Config struct {
	Mode        Mode              `yaml:"mode" toml:"mode" json:"mode"`
	Site        SiteConfig        `yaml:"site" toml:"site" json:"site"`
	Paths       PathsConfig       `yaml:"paths" toml:"paths" json:"paths"`
	Pages       PagesConfig       `yaml:"pages" toml:"pages" json:"pages"`
	Output      OutputConfig      `yaml:"output" toml:"output" json:"output"`
	Assets      AssetsConfig      `yaml:"assets" toml:"assets" json:"assets"`
	Sprite      SpriteConfig      `yaml:"sprite" toml:"sprite" json:"sprite"`
	DevServer   DevServerConfig   `yaml:"dev_server" toml:"dev_server" json:"dev_server"`
	Performance PerformanceConfig `yaml:"performance" toml:"performance" json:"performance"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging" json:"logging"`
	Aliases     map[string]string `yaml:"aliases" toml:"aliases" json:"aliases"`
	Provide     map[string]string `yaml:"provide" toml:"provide" json:"provide"`
	Static      []StaticCopy      `yaml:"static" toml:"static" json:"static"`

	// Root is the project directory all relative paths are resolved against.
	// It is set by the loader, never read from the file.
	Root string `yaml:"-" toml:"-" json:"-"`
}

// SiteConfig holds values exposed to page templates.
type SiteConfig struct {
	Title   string `yaml:"title" toml:"title" json:"title"`
	Lang    string `yaml:"lang" toml:"lang" json:"lang"`
	BaseURL string `yaml:"base_url" toml:"base_url" json:"base_url"`
}

// PathsConfig locates the source tree.
type PathsConfig struct {
	Source      string `yaml:"source" toml:"source" json:"source"`
	Entry       string `yaml:"entry" toml:"entry" json:"entry"`
	Pages       string `yaml:"pages" toml:"pages" json:"pages"`
	Templates   string `yaml:"templates" toml:"templates" json:"templates"`
	TemplateExt string `yaml:"template_ext" toml:"template_ext" json:"template_ext"`
	Fonts       string `yaml:"fonts" toml:"fonts" json:"fonts"`
}

// PagesConfig controls where the page selection policy lives.
type PagesConfig struct {
	Selection string `yaml:"selection" toml:"selection" json:"selection"`
	Validate  *bool  `yaml:"validate" toml:"validate" json:"validate"`
}

// OutputConfig describes the build output.
type OutputConfig struct {
	Directory  string `yaml:"directory" toml:"directory" json:"directory"`
	PublicPath string `yaml:"public_path" toml:"public_path" json:"public_path"`
	Clean      *bool  `yaml:"clean" toml:"clean" json:"clean"`
}

// AssetsConfig tunes the asset pipeline.
type AssetsConfig struct {
	InlineLimit int64 `yaml:"inline_limit" toml:"inline_limit" json:"inline_limit"`
	HashLength  int   `yaml:"hash_length" toml:"hash_length" json:"hash_length"`
}

// SpriteConfig configures the SVG sprite sheet.
type SpriteConfig struct {
	Filename string   `yaml:"filename" toml:"filename" json:"filename"`
	Include  []string `yaml:"include" toml:"include" json:"include"`
}

// DevServerConfig configures `sitepack serve`.
type DevServerConfig struct {
	Host        string   `yaml:"host" toml:"host" json:"host"`
	Port        int      `yaml:"port" toml:"port" json:"port"`
	LiveReload  *bool    `yaml:"live_reload" toml:"live_reload" json:"live_reload"`
	DebounceMS  int      `yaml:"debounce_ms" toml:"debounce_ms" json:"debounce_ms"`
	WatchIgnore []string `yaml:"watch_ignore" toml:"watch_ignore" json:"watch_ignore"`
}

// Performance hint modes.
const (
	HintsWarning = "warning"
	HintsError   = "error"
	HintsOff     = "off"
)

// PerformanceConfig holds the production size budgets in bytes.
type PerformanceConfig struct {
	Hints             string `yaml:"hints" toml:"hints" json:"hints"`
	MaxEntrypointSize int64  `yaml:"max_entrypoint_size" toml:"max_entrypoint_size" json:"max_entrypoint_size"`
	MaxAssetSize      int64  `yaml:"max_asset_size" toml:"max_asset_size" json:"max_asset_size"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// StaticCopy copies a directory verbatim into the output.
type StaticCopy struct {
	From string `yaml:"from" toml:"from" json:"from"`
	To   string `yaml:"to" toml:"to" json:"to"`
}

// Abs resolves p against the project root.
func (c *Config) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// ValidatePages reports whether page descriptors are checked before bundling.
func (c *Config) ValidatePages() bool { return boolValue(c.Pages.Validate, true) }

// CleanOutput reports whether the output directory is replaced on each build.
func (c *Config) CleanOutput() bool { return boolValue(c.Output.Clean, true) }

// LiveReload reports whether the dev server injects the reload client.
func (c *Config) LiveReload() bool { return boolValue(c.DevServer.LiveReload, true) }

func boolValue(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func boolPtr(b bool) *bool { return &b }
