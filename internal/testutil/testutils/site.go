// Package helpers provides fixtures shared by package tests: a scratch site
// source tree, output assertions and throwaway git repositories.
package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Site is a site source tree under a temporary directory.
type Site struct {
	t    *testing.T
	Root string
}

// NewSite creates an empty source directory.
func NewSite(t *testing.T) *Site {
	t.Helper()
	return &Site{t: t, Root: t.TempDir()}
}

// File writes content at rel below the site root, creating parents.
func (s *Site) File(rel, content string) *Site {
	s.t.Helper()
	p := filepath.Join(s.Root, filepath.FromSlash(rel))
	require.NoError(s.t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(s.t, os.WriteFile(p, []byte(content), 0o600))
	return s
}

// Template writes _templates/<name>.tpl.
func (s *Site) Template(name, content string) *Site {
	s.t.Helper()
	return s.File("_templates/"+name+".tpl", content)
}

// Post writes _posts/<rel>.
func (s *Site) Post(rel, content string) *Site {
	s.t.Helper()
	return s.File("_posts/"+rel, content)
}
