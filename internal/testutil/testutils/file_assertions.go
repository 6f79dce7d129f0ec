package helpers

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// FileAssertions checks the state of a build output directory. Failures are
// reported with t.Errorf so one call chain can report several problems.
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

// NewFileAssertions creates a new file assertions helper rooted at baseDir.
func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

// AssertFileExists validates that a regular file exists.
func (fa *FileAssertions) AssertFileExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	assert.FileExists(fa.t, filepath.Join(fa.baseDir, relativePath))
	return fa
}

// AssertNoFile validates that nothing exists at relativePath.
func (fa *FileAssertions) AssertNoFile(relativePath string) *FileAssertions {
	fa.t.Helper()
	assert.NoFileExists(fa.t, filepath.Join(fa.baseDir, relativePath))
	return fa
}

// AssertFileEquals validates a file's exact content.
func (fa *FileAssertions) AssertFileEquals(relativePath, expected string) *FileAssertions {
	fa.t.Helper()
	if content, ok := fa.read(relativePath); ok {
		assert.Equal(fa.t, expected, content, relativePath)
	}
	return fa
}

// AssertFileContains validates that a file contains expected content.
func (fa *FileAssertions) AssertFileContains(relativePath, expectedContent string) *FileAssertions {
	fa.t.Helper()
	if content, ok := fa.read(relativePath); ok {
		assert.Contains(fa.t, content, expectedContent, relativePath)
	}
	return fa
}

// AssertFileCount validates the number of regular files below the base
// directory, recursively.
func (fa *FileAssertions) AssertFileCount(expected int) *FileAssertions {
	fa.t.Helper()
	count := 0
	err := filepath.WalkDir(fa.baseDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	if assert.NoError(fa.t, err) {
		assert.Equal(fa.t, expected, count, "files under %s", fa.baseDir)
	}
	return fa
}

func (fa *FileAssertions) read(relativePath string) (string, bool) {
	fa.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	content, err := os.ReadFile(filepath.Join(fa.baseDir, relativePath))
	if !assert.NoError(fa.t, err) {
		return "", false
	}
	return string(content), true
}
