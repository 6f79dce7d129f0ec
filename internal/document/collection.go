package document

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pathfilter"
)

// Collection is an immutable set of documents keyed by output key.
type Collection struct {
	docs map[string]*Document
	keys []string
}

// NewCollection indexes docs by key. Two documents with the same key are a
// duplicate-key error naming both sources; the first one listed wins the
// "first" slot.
func NewCollection(docs ...*Document) (*Collection, error) {
	c := &Collection{docs: make(map[string]*Document, len(docs))}
	for _, d := range docs {
		if prev, ok := c.docs[d.Key]; ok {
			return nil, sberrors.DuplicateKey("document", d.Key, prev.Source, d.Source)
		}
		c.docs[d.Key] = d
		c.keys = append(c.keys, d.Key)
	}
	sort.Strings(c.keys)
	return c, nil
}

// LoadAll parses every file under dir accepted by filter. The walk is
// recursive and lexical; the first failing document aborts the load. A
// missing dir yields an empty collection.
func LoadAll(dir string, filter pathfilter.Predicate, opts KeyOptions) (*Collection, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Documents directory not found", logfields.Path(dir))
			return NewCollection()
		}
		return nil, sberrors.IOError("stat", dir, err)
	}

	var docs []*Document
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return sberrors.IOError("walk", p, walkErr)
		}
		if p == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return sberrors.InternalError("relative document path", err)
		}
		rel = filepath.ToSlash(rel)
		if !filter.Accept(rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		// #nosec G304 -- p comes from walking the configured documents directory.
		raw, err := os.ReadFile(p)
		if err != nil {
			return sberrors.IOError("read", p, err)
		}
		doc, err := parse(raw, rel, p, opts)
		if err != nil {
			return err
		}
		slog.Debug("Parsed document", logfields.File(rel), logfields.Key(doc.Key))
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewCollection(docs...)
}

// Get returns the document stored under key.
func (c *Collection) Get(key string) (*Document, bool) {
	d, ok := c.docs[key]
	return d, ok
}

// Keys returns all keys in sorted order.
func (c *Collection) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of documents.
func (c *Collection) Len() int { return len(c.keys) }

// Documents returns the documents sorted by key.
func (c *Collection) Documents() []*Document {
	out := make([]*Document, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.docs[k])
	}
	return out
}
