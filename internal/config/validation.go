package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

var perfHints = map[string]bool{HintsWarning: true, HintsError: true, HintsOff: true}

// Validate checks a configuration with defaults applied. The first problem
// is returned as a ConfigError naming the offending field.
func Validate(cfg *Config) error {
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return fieldError("mode", err.Error())
	}
	if ext := cfg.Paths.TemplateExt; strings.ContainsAny(ext, "./\\") {
		return fieldError("paths.template_ext", fmt.Sprintf("template extension %q must not contain dots or separators", ext))
	}
	if filepath.Clean(cfg.Output.Directory) == filepath.Clean(cfg.Paths.Source) {
		return fieldError("output.directory", "output directory must differ from the source directory")
	}
	if !strings.HasPrefix(cfg.Output.PublicPath, "/") && !strings.Contains(cfg.Output.PublicPath, "://") {
		return fieldError("output.public_path", "public path must be absolute or a full URL")
	}
	if cfg.Assets.InlineLimit < 0 {
		return fieldError("assets.inline_limit", "inline limit must not be negative")
	}
	if cfg.Assets.HashLength < 1 || cfg.Assets.HashLength > 64 {
		return fieldError("assets.hash_length", "hash length must be between 1 and 64")
	}
	if cfg.DevServer.Port < 1 || cfg.DevServer.Port > 65535 {
		return fieldError("dev_server.port", fmt.Sprintf("port %d out of range", cfg.DevServer.Port))
	}
	if cfg.DevServer.DebounceMS < 0 {
		return fieldError("dev_server.debounce_ms", "debounce must not be negative")
	}
	if !perfHints[cfg.Performance.Hints] {
		return fieldError("performance.hints", fmt.Sprintf("unknown hints mode %q (warning, error, off)", cfg.Performance.Hints))
	}
	if cfg.Performance.MaxAssetSize < 0 || cfg.Performance.MaxEntrypointSize < 0 {
		return fieldError("performance", "size budgets must not be negative")
	}
	if _, err := logLevelNormalizer.Parse(cfg.Logging.Level); err != nil {
		return fieldError("logging.level", err.Error())
	}
	if _, err := logFormatNormalizer.Parse(cfg.Logging.Format); err != nil {
		return fieldError("logging.format", err.Error())
	}
	for name, target := range cfg.Aliases {
		if !strings.HasPrefix(name, "~") || len(name) < 2 || strings.Contains(name, "/") {
			return fieldError("aliases", fmt.Sprintf("alias %q must look like ~name", name))
		}
		if target == "" {
			return fieldError("aliases."+name, "alias target must not be empty")
		}
	}
	for i, s := range cfg.Static {
		if s.From == "" {
			return fieldError(fmt.Sprintf("static[%d].from", i), "static copy source must not be empty")
		}
	}
	return nil
}

func fieldError(field, msg string) error {
	return errors.ConfigError(msg).WithField(field).Build()
}
