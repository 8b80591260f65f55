package devserver

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
)

// Watcher reports source changes under a set of directories plus any
// individual files added with WatchFile. New directories are watched as
// they appear.
type Watcher struct {
	w      *fsnotify.Watcher
	roots  []string
	files  map[string]bool
	ignore []glob.Glob
	logger *slog.Logger
}

// NewWatcher watches every directory below roots. Ignore patterns are
// globs matched against each path segment, for example "node_modules" or
// "*.tmp".
func NewWatcher(roots, ignore []string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	globs := make([]glob.Glob, 0, len(ignore))
	for _, pattern := range ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid watch ignore pattern").
				WithField("dev_server.watch_ignore").WithContext("pattern", pattern).Build()
		}
		globs = append(globs, g)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "create file watcher").Build()
	}
	w := &Watcher{w: fw, roots: roots, files: map[string]bool{}, ignore: globs, logger: logger}
	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return errors.WrapError(err, errors.CategoryRuntime, "watch source directory").WithPath(root).Build()
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.Ignored(path) {
			return filepath.SkipDir
		}
		if err := w.w.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// WatchFile reports changes to a single file outside the recursive roots.
// Its directory is watched non-recursively so atomic saves are seen; other
// entries in that directory are dropped.
func (w *Watcher) WatchFile(path string) error {
	path = filepath.Clean(path)
	w.files[path] = true
	if w.underRoot(path) {
		return nil
	}
	if err := w.w.Add(filepath.Dir(path)); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "watch file").WithPath(path).Build()
	}
	return nil
}

// Ignored reports whether changes to path never trigger a rebuild:
// hidden files, editor temp files, OS metadata and configured patterns.
func (w *Watcher) Ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) ||
		base == "Thumbs.db" {
		return true
	}
	for _, seg := range strings.Split(filepath.ToSlash(w.rel(path)), "/") {
		for _, g := range w.ignore {
			if g.Match(seg) {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		if _, ok := within(root, path); ok {
			return true
		}
	}
	return false
}

// relevant reports whether an event for path should reach onChange.
func (w *Watcher) relevant(path string) bool {
	if w.files[filepath.Clean(path)] {
		return true
	}
	return w.underRoot(path) && !w.Ignored(path)
}

// rel makes path relative to the watched root containing it, so
// patterns never match directories above the project.
func (w *Watcher) rel(path string) string {
	for _, root := range w.roots {
		if rel, ok := within(root, path); ok {
			return rel
		}
	}
	return filepath.Base(path)
}

func within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// Run delivers relevant change events to onChange until ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = w.addRecursive(ev.Name)
				}
			}
			w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			onChange(ev.Name)
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error { return w.w.Close() }
