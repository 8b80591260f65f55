package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

// siteFileCandidates are probed in order when no explicit path is given.
var siteFileCandidates = []string{"site.yaml", "site.yml", "site.toml"}

// Load reads the site configuration. An empty path probes the working
// directory for site.yaml, site.yml and site.toml; finding none yields the
// defaults. An explicit path that does not exist is a NotFound error.
//
// ${VAR} references are expanded against the process environment before
// decoding, so callers should load .env files first.
func Load(fsys afero.Fs, path string) (*Config, error) {
	if path == "" {
		for _, candidate := range siteFileCandidates {
			if ok, _ := afero.Exists(fsys, candidate); ok {
				path = candidate
				break
			}
		}
		if path == "" {
			return Default(), nil
		}
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("configuration file not found").WithPath(path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read configuration file").WithPath(path).Build()
	}

	cfg, err := Parse(path, []byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	cfg.Root = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes configuration bytes, choosing TOML or YAML from the file
// extension, then applies defaults and validates. Unknown keys are rejected.
func Parse(name string, data []byte) (*Config, error) {
	var cfg Config
	if err := decode(name, data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid configuration file").
			Fatal().UserAction().WithPath(name).Build()
	}
	applyDefaults(&cfg)
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(name string, data []byte, target any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if isTOML(name) {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(target)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return nil
}

func isTOML(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".toml")
}
