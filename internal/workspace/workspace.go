package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pathfilter"
)

// CopyStats summarizes a CopyTree run.
type CopyStats struct {
	Files int
	Dirs  int
	Bytes int64
}

// CreateDir creates dir and any missing parents.
func CreateDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// RemoveTree removes dir and everything beneath it. A missing dir is not an
// error.
func RemoveTree(dir string) error {
	if err := guard(dir); err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove directory: %w", err)
	}
	return nil
}

// Reset leaves dir existing and empty.
func Reset(dir string) error {
	if err := RemoveTree(dir); err != nil {
		return err
	}
	if err := CreateDir(dir); err != nil {
		return err
	}
	slog.Debug("Reset directory", logfields.Path(dir))
	return nil
}

func guard(dir string) error {
	clean := filepath.Clean(dir)
	if dir == "" || clean == "." || clean == string(filepath.Separator) || clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return fmt.Errorf("refusing to remove %q", dir)
	}
	return nil
}

// CopyTree mirrors every entry under src that filter accepts into dst,
// preserving the relative layout and file modes. Rejected directories are
// not descended into. Symlinks to files are copied as regular files;
// symlinks to directories are skipped.
func CopyTree(src, dst string, filter pathfilter.Predicate) (CopyStats, error) {
	var stats CopyStats

	srcInfo, err := os.Stat(src)
	if err != nil {
		return stats, err
	}
	if !srcInfo.IsDir() {
		return stats, fmt.Errorf("%s is not a directory", src)
	}

	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == src {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if !filter.Accept(filepath.ToSlash(rel), d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return err
			}
			stats.Dirs++
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			info, err := os.Stat(p)
			if err != nil {
				return err
			}
			if info.IsDir() {
				slog.Debug("Skipping directory symlink", logfields.Path(p))
				return nil
			}
		case !d.Type().IsRegular():
			slog.Debug("Skipping special file", logfields.Path(p))
			return nil
		}

		n, err := copyFile(p, target)
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += n
		return nil
	})
	return stats, err
}

// copyFile copies a single file from src to dst
func copyFile(src, dst string) (int64, error) {
	// #nosec G304 -- src comes from walking the source tree.
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return 0, err
	}
	// #nosec G304 -- dst mirrors src under the output directory.
	dstFile, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dstFile, srcFile)
	if cerr := dstFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}

	// Preserve file permissions
	srcInfo, err := srcFile.Stat()
	if err != nil {
		return n, err
	}
	return n, os.Chmod(dst, srcInfo.Mode().Perm())
}

// IsWithin reports whether path lies inside (or equals) dir.
func IsWithin(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !hasParentPrefix(rel))
}

func hasParentPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}

var errNotDir = errors.New("not a directory")

// EnsureDir fails when path exists but is not a directory.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", path, errNotDir)
	}
	return nil
}
