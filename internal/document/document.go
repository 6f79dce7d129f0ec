// Package document parses content files into Documents and loads whole
// document directories into a Collection keyed by output key.
package document

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/inful/mdfp"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// Metadata keys that select a template, in order of precedence.
const (
	TemplateField = "template"
	LayoutField   = "layout"
)

// Reserved field names supplied by the renderer; front matter may not set them.
var reservedFields = []string{"content", "body", "key"}

// Document is one parsed content file.
type Document struct {
	// Key is the relative output identifier, never empty.
	Key string
	// Source is the slash-separated path relative to the documents directory.
	Source string
	// Metadata holds the front-matter fields.
	Metadata map[string]string
	// Body is the raw content following the front-matter block.
	Body string
	// TemplateName is the explicit template selection; empty means default.
	TemplateName string
	// Date comes from a YYYY-MM-DD filename prefix; zero when absent.
	Date time.Time
	// HasFrontMatter reports whether the file opened with a metadata block.
	HasFrontMatter bool
}

// Parse splits raw into metadata and body and derives the document key from
// source. A malformed metadata block fails with a decoding error naming
// source.
func Parse(raw []byte, source string, opts KeyOptions) (*Document, error) {
	return parse(raw, source, source, opts)
}

func parse(raw []byte, source, filename string, opts KeyOptions) (*Document, error) {
	fm, body, had, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, sberrors.DecodingError(filename, err)
	}

	meta, err := frontmatter.Decode(fm)
	if err != nil {
		return nil, sberrors.DecodingError(filename, err)
	}
	for _, name := range reservedFields {
		if _, ok := meta[name]; ok {
			return nil, sberrors.DecodingError(filename, fmt.Errorf("field %q is reserved", name))
		}
	}

	key, date := DeriveKey(source, opts)
	return &Document{
		Key:            key,
		Source:         path.Clean(strings.ReplaceAll(source, `\`, "/")),
		Metadata:       meta,
		Body:           string(body),
		TemplateName:   templateName(meta),
		Date:           date,
		HasFrontMatter: had,
	}, nil
}

func templateName(meta map[string]string) string {
	for _, f := range []string{TemplateField, LayoutField} {
		if v := strings.TrimSpace(meta[f]); v != "" {
			return v
		}
	}
	return ""
}

// Slug returns the last element of the key.
func (d *Document) Slug() string {
	return path.Base(d.Key)
}

// Fingerprint returns a stable content fingerprint over metadata and body.
func (d *Document) Fingerprint() string {
	fm := ""
	if len(d.Metadata) > 0 {
		// Encode cannot fail for string-only metadata.
		out, _ := frontmatter.Encode(d.Metadata, frontmatter.Style{Newline: "\n"})
		fm = strings.TrimSuffix(string(out), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, d.Body)
}
