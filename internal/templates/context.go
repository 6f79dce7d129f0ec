package templates

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitebuilder/internal/document"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

// Context is the flat field set a template is rendered with.
type Context map[string]string

// Field names supplied by the renderer.
const (
	FieldContent     = "content"
	FieldBody        = "body"
	FieldKey         = "key"
	FieldDate        = "date"
	FieldTitle       = "title"
	FieldExcerpt     = "excerpt"
	FieldFingerprint = "fingerprint"
	SitePrefix       = "site."
	FieldRevision    = SitePrefix + "revision"
)

// titleFromSlug turns "my-first_post" into "My First Post".
func titleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	// A Caser is stateful; one per call keeps rendering goroutine-safe.
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// buildContext assembles the render context. Derived fields come first and
// are overridden by front matter; site parameters and the reserved content,
// body and key fields are set last.
func (r *Renderer) buildContext(doc *document.Document) (Context, error) {
	ctx := make(Context, len(doc.Metadata)+len(r.opts.Site)+8)

	ctx[FieldTitle] = titleFromSlug(doc.Slug())
	ctx[FieldFingerprint] = doc.Fingerprint()
	if !doc.Date.IsZero() {
		ctx[FieldDate] = doc.Date.Format("2006-01-02")
	}

	content := doc.Body
	if r.opts.Markdown != nil {
		html, err := r.opts.Markdown.ToHTMLString(doc.Body)
		if err != nil {
			return nil, err
		}
		content = html
		ctx[FieldExcerpt] = markdown.Excerpt(html)
	} else {
		ctx[FieldExcerpt] = markdown.TextExcerpt(doc.Body)
	}

	for k, v := range doc.Metadata {
		ctx[k] = v
	}
	for k, v := range r.opts.Site {
		ctx[SitePrefix+k] = v
	}
	if r.opts.Revision != "" {
		ctx[FieldRevision] = r.opts.Revision
	}

	ctx[FieldContent] = content
	ctx[FieldBody] = doc.Body
	ctx[FieldKey] = doc.Key
	return ctx, nil
}
