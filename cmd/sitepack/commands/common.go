package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
)

// Global is shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Fs     afero.Fs
	Stdout io.Writer
	Stderr io.Writer
}

// NewGlobal returns a Global bound to the real filesystem and process streams.
func NewGlobal() *Global {
	return &Global{Fs: afero.NewOsFs(), Stdout: os.Stdout, Stderr: os.Stderr}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (probes site.yaml, site.yml, site.toml when empty)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Mode    string           `short:"m" help:"Build mode (development|production). Precedence: --mode > SITEPACK_ENV > config."`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site into the output directory"`
	Serve   ServeCmd   `cmd:"" help:"Serve the site with rebuild on change and live reload"`
	Pages   PagesCmd   `cmd:"" help:"List the selected pages and their entries"`
	Inspect InspectCmd `cmd:"" help:"Print the resolved build descriptor"`
	Init    InitCmd    `cmd:"" help:"Scaffold a new site"`
}

// AfterApply runs after flag parsing; loads .env files and sets up a
// bootstrap logger until the configuration is read.
func (c *CLI) AfterApply(g *Global) error {
	if g.Fs == nil {
		g.Fs = afero.NewOsFs()
	}
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	if g.Stderr == nil {
		g.Stderr = os.Stderr
	}
	g.Logger = config.NewLogger(g.Stderr, config.LoggingConfig{}, c.Verbose)
	slog.SetDefault(g.Logger)

	loaded, err := config.LoadEnvFiles(g.Fs, ".")
	if err != nil {
		return err
	}
	for _, f := range loaded {
		g.Logger.Debug("Loaded env file", logfields.Path(f))
	}
	return nil
}

// LoadConfig reads the configuration and layers the environment selector
// and the --mode flag on top. The global logger is rebuilt from the
// resulting logging settings.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(g.Fs, c.Config)
	if err != nil {
		return nil, err
	}
	overrides, err := config.ParseEnv()
	if err != nil {
		return nil, err
	}
	if err := overrides.Apply(cfg); err != nil {
		return nil, err
	}
	if c.Mode != "" {
		mode, err := config.ParseMode(c.Mode)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryValidation, "invalid --mode").
				UserAction().WithField("mode").Build()
		}
		cfg.Mode = mode
	}

	g.Logger = config.NewLogger(g.Stderr, cfg.Logging, c.Verbose)
	slog.SetDefault(g.Logger)
	g.Logger.Debug("Configuration loaded", logfields.Path(c.Config), logfields.Mode(string(cfg.Mode)))
	return cfg, nil
}
