package templates

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/document"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

// DefaultTemplateName is used when RenderOptions leaves it empty.
const DefaultTemplateName = "default"

// RenderOptions configures a Renderer.
type RenderOptions struct {
	// DefaultTemplate is used for documents that do not select one.
	DefaultTemplate string
	// Markdown converts bodies to HTML for the content field; nil keeps the
	// raw body.
	Markdown *markdown.Converter
	// Site parameters, exposed as site.<name>.
	Site map[string]string
	// Revision is exposed as site.revision when non-empty.
	Revision string
	// FileMode for written outputs; zero means 0o644.
	FileMode os.FileMode
}

// Renderer merges documents into templates. It holds no mutable state and
// is safe for concurrent use.
type Renderer struct {
	store *Store
	opts  RenderOptions
}

// NewRenderer returns a Renderer backed by store.
func NewRenderer(store *Store, opts RenderOptions) *Renderer {
	if opts.DefaultTemplate == "" {
		opts.DefaultTemplate = DefaultTemplateName
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}
	return &Renderer{store: store, opts: opts}
}

// Resolve picks the template for doc: its explicit selection if any,
// otherwise the default. A named template that does not exist is an error;
// there is no fallback to the default.
func (r *Renderer) Resolve(doc *document.Document) (*Template, error) {
	name := doc.TemplateName
	if name == "" {
		name = r.opts.DefaultTemplate
	}
	t, ok := r.store.Get(name)
	if !ok {
		return nil, sberrors.MissingTemplate(name, doc.Key)
	}
	return t, nil
}

// Render produces the output bytes for doc. The same document and store
// always render to the same bytes.
func (r *Renderer) Render(doc *document.Document) ([]byte, error) {
	t, err := r.Resolve(doc)
	if err != nil {
		return nil, err
	}
	ctx, err := r.buildContext(doc)
	if err != nil {
		return nil, sberrors.InternalError("render markdown", err).WithContext("key", doc.Key)
	}

	tpl, err := t.tpl.Clone()
	if err != nil {
		return nil, sberrors.InternalError("clone template", err).WithContext("template", t.Name)
	}
	tpl.Funcs(placeholderFuncs(ctx))

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, ctx); err != nil {
		var missing *missingFieldError
		if errors.As(err, &missing) {
			return nil, sberrors.UnresolvedPlaceholder(t.Name, missing.field, doc.Key)
		}
		return nil, sberrors.Wrap(err, sberrors.KindDecoding, sberrors.SeverityFatal, "execute template").
			WithContext("template", t.Name).
			WithContext("key", doc.Key)
	}
	return buf.Bytes(), nil
}

// RenderToFile renders doc and writes it to outputPath, creating parent
// directories and replacing any existing file atomically.
func (r *Renderer) RenderToFile(doc *document.Document, outputPath string) error {
	out, err := r.Render(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o750); err != nil {
		return sberrors.IOError("create output directory", filepath.Dir(outputPath), err)
	}
	if err := writeFileAtomic(outputPath, out, r.opts.FileMode); err != nil {
		return sberrors.IOError("write", outputPath, err)
	}
	return nil
}

// OutputPath maps a document key to its file under destDir. Keys that would
// escape destDir are rejected.
func OutputPath(destDir, key, ext string) (string, error) {
	if key == "" {
		return "", sberrors.InternalError("empty document key", nil)
	}
	rel := filepath.Clean(filepath.FromSlash(key) + ext)
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", sberrors.InternalError(fmt.Sprintf("output path escapes destination: %s", key), nil).
			WithContext("key", key)
	}
	return filepath.Join(destDir, rel), nil
}
