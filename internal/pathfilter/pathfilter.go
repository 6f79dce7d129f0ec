// Package pathfilter holds the single "is this path eligible for processing"
// abstraction shared by the template loader, the document loader and the
// asset copier.
//
// A Predicate receives the slash-separated path relative to the walk root and
// the directory entry. Returning false for a directory prunes its subtree.
package pathfilter

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Predicate decides whether a walked entry is eligible.
type Predicate func(rel string, d fs.DirEntry) bool

// All returns a predicate that accepts an entry only when every p accepts it.
// A nil predicate accepts everything.
func All(preds ...Predicate) Predicate {
	return func(rel string, d fs.DirEntry) bool {
		for _, p := range preds {
			if p != nil && !p(rel, d) {
				return false
			}
		}
		return true
	}
}

// Accept reports whether p accepts the entry; a nil p accepts everything.
func (p Predicate) Accept(rel string, d fs.DirEntry) bool {
	return p == nil || p(rel, d)
}

// NotHidden rejects dotfiles and dot-directories.
func NotHidden() Predicate {
	return func(rel string, d fs.DirEntry) bool {
		return !IsHidden(d.Name())
	}
}

// IsHidden reports whether a base name denotes a hidden file.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// HasExtension accepts regular files whose extension (without the dot,
// case-insensitive) is one of exts. Directories are always accepted.
func HasExtension(exts ...string) Predicate {
	want := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		want[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return func(rel string, d fs.DirEntry) bool {
		if d.IsDir() {
			return true
		}
		_, ok := want[strings.ToLower(strings.TrimPrefix(path.Ext(d.Name()), "."))]
		return ok
	}
}

// Excluding rejects each listed relative path and everything beneath it.
// Paths are slash-separated and relative to the walk root.
func Excluding(rels ...string) Predicate {
	clean := make([]string, 0, len(rels))
	for _, r := range rels {
		r = path.Clean(strings.TrimPrefix(r, "./"))
		if r == "." || r == "" || strings.HasPrefix(r, "../") || r == ".." {
			continue
		}
		clean = append(clean, r)
	}
	return func(rel string, d fs.DirEntry) bool {
		for _, c := range clean {
			if rel == c || strings.HasPrefix(rel, c+"/") {
				return false
			}
		}
		return true
	}
}

// MatchingNone rejects entries whose relative path matches any of the
// doublestar glob patterns. Invalid patterns are reported up front.
func MatchingNone(patterns ...string) (Predicate, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return func(rel string, d fs.DirEntry) bool {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, rel); ok {
				return false
			}
		}
		return true
	}, nil
}
