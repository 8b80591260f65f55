package workspace

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
)

// Staging is one in-progress output directory.
type Staging struct {
	final  string
	dir    string
	osfs   afero.Fs
	logger *slog.Logger
}

// Begin creates <final>.stage, removing any leftover from an aborted run.
// When keep is true the current contents of final are copied in. A nil
// logger falls back to slog.Default().
func Begin(final string, keep bool, logger *slog.Logger) (*Staging, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if info, err := os.Stat(final); err == nil && !info.IsDir() {
		return nil, errors.FileSystemError("output path exists and is not a directory").
			UserAction().WithPath(final).Build()
	}
	s := &Staging{final: final, dir: final + ".stage", osfs: afero.NewOsFs(), logger: logger}
	if err := os.RemoveAll(s.dir); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "remove stale staging directory").WithPath(s.dir).Build()
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create staging directory").WithPath(s.dir).Build()
	}
	if keep {
		if ok, _ := afero.DirExists(s.osfs, final); ok {
			if err := CopyTree(s.osfs, final, s.osfs, s.dir); err != nil {
				s.Abort()
				return nil, err
			}
		}
	}
	s.logger.Debug("Initialized staging directory", slog.String("staging", s.dir), logfields.Output(final))
	return s, nil
}

// Path is the directory the build writes into.
func (s *Staging) Path() string { return s.dir }

// Fs is an afero view rooted at the staging directory.
func (s *Staging) Fs() afero.Fs { return afero.NewBasePathFs(s.osfs, s.dir) }

// Promote swaps the staging directory into place:
//  1. move the existing output to <final>.prev
//  2. rename staging to final
//  3. remove the backup
func (s *Staging) Promote() error {
	if s.dir == "" {
		return errors.InternalError("no staging directory to promote").Build()
	}
	if _, err := os.Stat(s.dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "staging directory missing").WithPath(s.dir).Build()
	}
	prev := s.final + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "remove previous backup").WithPath(prev).Build()
	}
	if _, err := os.Stat(s.final); err == nil {
		if err := os.Rename(s.final, prev); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "backup existing output").WithPath(s.final).Build()
		}
	}
	if err := os.Rename(s.dir, s.final); err != nil {
		_ = os.Rename(prev, s.final)
		return errors.WrapError(err, errors.CategoryFileSystem, "promote staging").WithPath(s.final).Build()
	}
	s.dir = ""
	if err := os.RemoveAll(prev); err != nil {
		s.logger.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	s.logger.Debug("Promoted staging directory", logfields.Output(s.final))
	return nil
}

// Abort removes the staging directory. Safe to call after Promote.
func (s *Staging) Abort() {
	if s.dir == "" {
		return
	}
	dir := s.dir
	s.dir = ""
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("Failed to remove staging directory after abort", slog.String("staging", dir), logfields.Error(err))
	}
}

// CopyTree copies every regular file under src in from to dst in to,
// preserving relative paths and permissions.
func CopyTree(from afero.Fs, src string, to afero.Fs, dst string) error {
	err := afero.Walk(from, src, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return to.MkdirAll(target, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		data, err := afero.ReadFile(from, path)
		if err != nil {
			return err
		}
		return afero.WriteFile(to, target, data, info.Mode().Perm())
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, fmt.Sprintf("copy %s", src)).
			WithPath(dst).Build()
	}
	return nil
}
