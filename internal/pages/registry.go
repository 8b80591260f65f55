package pages

import (
	"os"
	"slices"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

// ErrPagesDirNotFound is returned when the pages directory does not exist.
var ErrPagesDirNotFound = errors.NotFoundError("pages directory does not exist").Build()

// SelectPages applies a selection policy to a directory listing.
//
// A non-empty sel.Pages replaces the listing outright, even with names that
// are not on disk. Exclude then drops members while keeping order.
func SelectPages(listing []string, sel config.PageSelection) []string {
	candidates := listing
	if len(sel.Pages) > 0 {
		candidates = sel.Pages
	}
	out := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if len(sel.Exclude) > 0 && slices.Contains(sel.Exclude, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// ListPageDirs returns the names of the sub-directories of dir in the order
// the filesystem enumerates them. Plain files are ignored.
func ListPageDirs(fsys afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError(ErrPagesDirNotFound.Message()).WithPath(dir).WithCause(err).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read pages directory").WithPath(dir).Build()
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Registry reads the pages directory and applies the selection policy.
type Registry struct {
	FS        afero.Fs
	Dir       string
	Selection config.PageSelection
}

// Select lists Dir and returns the selected page names. A missing pages
// directory is fatal even when the selection overrides discovery.
func (r Registry) Select() ([]string, error) {
	listing, err := ListPageDirs(r.FS, r.Dir)
	if err != nil {
		return nil, err
	}
	return SelectPages(listing, r.Selection), nil
}
