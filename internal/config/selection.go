package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

// PageSelection is the page selection policy.
//
// A non-empty Pages list replaces directory discovery entirely; Exclude is
// applied afterwards in both cases.
type PageSelection struct {
	Pages   []string `mapstructure:"pages" yaml:"pages" json:"pages"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
}

// IsZero reports whether the selection neither overrides nor excludes.
func (s PageSelection) IsZero() bool {
	return len(s.Pages) == 0 && len(s.Exclude) == 0
}

var selectionFields = []string{"pages", "exclude"}

// LoadPageSelection reads the selection file. A missing file is an empty
// selection. Unknown keys and values that are not lists of strings are
// ConfigErrors naming the field; nothing is coerced.
func LoadPageSelection(fsys afero.Fs, path string) (PageSelection, error) {
	var sel PageSelection
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return sel, nil
		}
		return sel, errors.WrapError(err, errors.CategoryFileSystem, "read page selection").WithPath(path).Build()
	}
	return ParsePageSelection(path, data)
}

// ParsePageSelection decodes selection bytes (YAML or TOML by extension).
func ParsePageSelection(name string, data []byte) (PageSelection, error) {
	var sel PageSelection
	raw := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		var err error
		if isTOML(name) {
			err = toml.Unmarshal(data, &raw)
		} else {
			var doc any
			err = yaml.Unmarshal(data, &doc)
			if err == nil && doc != nil {
				m, ok := doc.(map[string]any)
				if !ok {
					return sel, selectionError("", name, fmt.Sprintf("page selection must be a mapping, got %T", doc))
				}
				raw = m
			}
		}
		if err != nil {
			return sel, errors.WrapError(err, errors.CategoryConfig, "invalid page selection file").
				Fatal().UserAction().WithPath(name).Build()
		}
	}
	return decodeSelection(name, raw)
}

func decodeSelection(name string, raw map[string]any) (PageSelection, error) {
	var sel PageSelection

	unknown := make([]string, 0)
	for key := range raw {
		if !isSelectionField(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return sel, selectionError(unknown[0], name, fmt.Sprintf("unknown page selection key %q", unknown[0]))
	}

	// Decode field by field so a type error names exactly one field.
	for _, field := range selectionFields {
		value, ok := raw[field]
		if !ok || value == nil {
			continue
		}
		var list []string
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &list,
			ErrorUnused: true,
		})
		if err != nil {
			return sel, errors.WrapError(err, errors.CategoryInternal, "build selection decoder").Build()
		}
		if _, isSlice := value.([]any); !isSlice {
			return sel, selectionError(field, name, fmt.Sprintf("%s must be a list of page names, got %T", field, value))
		}
		if err := dec.Decode(value); err != nil {
			return sel, selectionError(field, name, fmt.Sprintf("%s must be a list of page names: %v", field, err))
		}
		switch field {
		case "pages":
			sel.Pages = list
		case "exclude":
			sel.Exclude = list
		}
	}
	return sel, nil
}

func isSelectionField(key string) bool {
	for _, f := range selectionFields {
		if f == key {
			return true
		}
	}
	return false
}

func selectionError(field, path, msg string) error {
	return errors.ConfigError(msg).WithField(field).WithPath(path).Build()
}
