// Package markdown converts document bodies to HTML and derives plain-text
// excerpts from the result.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Options controls how Markdown is rendered.
type Options struct {
	// Unsafe passes raw HTML in the source through to the output.
	Unsafe bool
}

// Converter renders Markdown with GitHub Flavored Markdown extensions.
// It is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// New returns a Converter configured by opts.
func New(opts Options) *Converter {
	var rendererOpts []goldmark.Option
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return &Converter{
		md: goldmark.New(append(rendererOpts, goldmark.WithExtensions(extension.GFM))...),
	}
}

// ToHTML renders body.
func (c *Converter) ToHTML(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// ToHTMLString is ToHTML for string bodies.
func (c *Converter) ToHTMLString(body string) (string, error) {
	out, err := c.ToHTML([]byte(body))
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}
