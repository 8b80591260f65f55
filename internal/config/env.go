package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// envFiles are loaded in order; a key set by an earlier file or by the
// process environment is never overwritten.
var envFiles = []string{".env.local", ".env"}

// LoadEnvFiles reads .env.local and .env from dir into the process
// environment and returns the files that were applied.
func LoadEnvFiles(fsys afero.Fs, dir string) ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		f, err := fsys.Open(path)
		if err != nil {
			continue
		}
		values, err := godotenv.Parse(f)
		_ = f.Close()
		if err != nil {
			return loaded, fmt.Errorf("parse %s: %w", path, err)
		}
		for k, v := range values {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, v)
			}
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// EnvOverrides is the environment selector. Values left empty do not
// override the configuration file.
type EnvOverrides struct {
	Mode     string `env:"SITEPACK_ENV"`
	Port     int    `env:"SITEPACK_PORT"`
	LogLevel string `env:"SITEPACK_LOG_LEVEL"`
	Output   string `env:"SITEPACK_OUTPUT"`
}

// ParseEnv loads the environment selector from the process environment.
func ParseEnv() (EnvOverrides, error) {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return o, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// Apply copies non-empty overrides onto cfg and re-validates it.
func (o EnvOverrides) Apply(cfg *Config) error {
	if o.Mode != "" {
		m, err := ParseMode(o.Mode)
		if err != nil {
			return fieldError("mode", err.Error())
		}
		cfg.Mode = m
	}
	if o.Port != 0 {
		cfg.DevServer.Port = o.Port
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.Output != "" {
		cfg.Output.Directory = o.Output
	}
	return Validate(cfg)
}
