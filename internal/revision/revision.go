// Package revision reads the source revision recorded in the build manifest.
package revision

import (
	"errors"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/sitepack/internal/logfields"
)

// Head returns the commit hash checked out in the repository containing
// dir, searching parent directories for .git. It returns "" when dir is
// not inside a repository or the repository has no commits yet.
func Head(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			slog.Debug("Cannot open repository", logfields.Path(dir), logfields.Error(err))
		}
		return ""
	}
	ref, err := repo.Head()
	if err != nil {
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			slog.Debug("Cannot read HEAD", logfields.Path(dir), logfields.Error(err))
		}
		return ""
	}
	return ref.Hash().String()
}
