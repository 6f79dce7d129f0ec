package templates

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pathfilter"
)

// Store holds the templates of one site, keyed by name. It is read-only
// after construction and safe for concurrent use.
type Store struct {
	templates map[string]*Template
	names     []string
}

// NewStore indexes templates by name; two templates sharing a name are a
// duplicate-key error.
func NewStore(templates ...*Template) (*Store, error) {
	s := &Store{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if prev, ok := s.templates[t.Name]; ok {
			return nil, sberrors.DuplicateKey("template", t.Name, prev.Path, t.Path)
		}
		s.templates[t.Name] = t
		s.names = append(s.names, t.Name)
	}
	sort.Strings(s.names)
	return s, nil
}

// Load reads every file directly inside dir that filter accepts. The
// listing is flat and sorted by file name; subdirectories are ignored. Any
// read or parse failure aborts the whole load.
func Load(dir string, filter pathfilter.Predicate) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, sberrors.IOError("read templates directory", dir, err)
	}

	templates := make([]*Template, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !filter.Accept(e.Name(), e) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		// #nosec G304 -- p is an entry of the configured templates directory.
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, sberrors.IOError("read", p, err)
		}

		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		t, err := Parse(name, string(raw))
		if err != nil {
			return nil, sberrors.DecodingError(p, errors.Unwrap(err))
		}
		t.Path = p
		templates = append(templates, t)
		slog.Debug("Loaded template", logfields.Template(name), logfields.Path(p))
	}
	return NewStore(templates...)
}

// Get returns the template called name.
func (s *Store) Get(name string) (*Template, bool) {
	t, ok := s.templates[name]
	return t, ok
}

// Names returns the template names in sorted order.
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of templates.
func (s *Store) Len() int { return len(s.names) }
