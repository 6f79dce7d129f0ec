// Package gitinfo reads the revision of the repository a site lives in.
package gitinfo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNotRepository is returned when no repository encloses the directory.
var ErrNotRepository = errors.New("not inside a git repository")

// Info describes the checked-out revision.
type Info struct {
	// Hash is the full commit hash of HEAD.
	Hash string
	// Branch is the short branch name, empty for a detached HEAD.
	Branch string
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.Hash) > 7 {
		return i.Hash[:7]
	}
	return i.Hash
}

// Head resolves HEAD for the repository containing dir, searching parent
// directories for the .git entry.
func Head(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Info{}, ErrNotRepository
		}
		return Info{}, fmt.Errorf("open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Info{}, fmt.Errorf("repository has no commits: %w", err)
		}
		return Info{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	info := Info{Hash: ref.Hash().String()}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}
	return info, nil
}
