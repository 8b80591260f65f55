package assets

import (
	"path/filepath"
	"strings"
)

// Aliases maps "~name" prefixes to directories.
type Aliases map[string]string

// Expand rewrites "~name/rest" to "<dir>/rest". It reports false when p
// does not start with a known alias.
func (a Aliases) Expand(p string) (string, bool) {
	if !strings.HasPrefix(p, "~") {
		return p, false
	}
	name, rest, _ := strings.Cut(p, "/")
	dir, ok := a[name]
	if !ok {
		return p, false
	}
	if rest == "" {
		return dir, true
	}
	return filepath.Join(dir, filepath.FromSlash(rest)), true
}

// Locate resolves an asset path the way imports do: aliases first, then
// relative to the importing file's directory.
func (a Aliases) Locate(p, importerDir string) string {
	if expanded, ok := a.Expand(p); ok {
		return expanded
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(importerDir, filepath.FromSlash(p))
}

// SpritePlaceholder stands in for the sprite sheet URL until the sheet has
// been written and its fingerprint is known.
const SpritePlaceholder = "__SITEPACK_SPRITE__"
