package helpers

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// SetupTestGitRepo initializes a git repository in dir.
// Returns the repository and its worktree.
func SetupTestGitRepo(t *testing.T, dir string) (*git.Repository, *git.Worktree) {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err, "failed to initialize git repo")

	w, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	return repo, w
}

// CommitAll stages every file in the worktree and commits it, returning the
// full commit hash.
func CommitAll(t *testing.T, w *git.Worktree, message string) string {
	t.Helper()
	_, err := w.Add(".")
	require.NoError(t, err)
	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}
