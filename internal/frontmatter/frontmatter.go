// Package frontmatter splits documents into a YAML front-matter block and a
// body, and converts that block to and from flat string metadata.
//
// The block opens with a first line that is exactly "---" and closes at the
// next line that is exactly "---". LF and CRLF newlines are both accepted.
//
// Encode followed by Decode returns the original metadata. Documents built on
// top of this package reserve the field names "content", "body" and "key", so
// metadata using them is rejected when a document is parsed.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline/trailing newline shape and does not
// attempt to preserve original YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

const delimiter = "---"

var (
	// ErrMissingClosingDelimiter indicates the document started with a YAML
	// frontmatter delimiter but did not contain a closing delimiter.
	ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

	// ErrNotMapping indicates the frontmatter is valid YAML but not a mapping.
	ErrNotMapping = errors.New("frontmatter must be a mapping of key: value pairs")

	// ErrNonScalarValue indicates a field whose value is a list or a map.
	ErrNonScalarValue = errors.New("frontmatter values must be scalars")

	// ErrDuplicateField indicates the same key appears twice.
	ErrDuplicateField = errors.New("frontmatter field defined more than once")
)

// Split separates YAML frontmatter (`---` delimited) from the document body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input. The closing delimiter may be the last line of
// the input with no trailing newline.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	rest := content[len(open):]
	if end, ok := closingLineAt(rest, 0, nl); ok {
		return []byte{}, rest[end:], true, style, nil
	}

	marker := []byte(nl + delimiter)
	offset := 0
	for {
		idx := bytes.Index(rest[offset:], marker)
		if idx < 0 {
			return nil, nil, false, style, ErrMissingClosingDelimiter
		}
		lineStart := offset + idx + len(nl)
		if end, ok := closingLineAt(rest, lineStart, nl); ok {
			return rest[:lineStart], rest[end:], true, style, nil
		}
		offset = lineStart
	}
}

// closingLineAt reports whether a line holding only the delimiter starts at
// b[i], returning the index just past that line.
func closingLineAt(b []byte, i int, nl string) (int, bool) {
	if !bytes.HasPrefix(b[i:], []byte(delimiter)) {
		return 0, false
	}
	j := i + len(delimiter)
	if j == len(b) {
		return j, true
	}
	if bytes.HasPrefix(b[j:], []byte(nl)) {
		return j + len(nl), true
	}
	return 0, false
}

// Join reassembles a document from raw frontmatter and body.
//
// If had is false, Join returns body as-is.
// If had is true, Join emits YAML frontmatter using `---` delimiters and the
// newline style captured in Style.
func Join(frontmatter []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	open := []byte(delimiter + nl)
	closing := []byte(delimiter + nl)

	out := make([]byte, 0, len(open)+len(frontmatter)+len(closing)+len(body))
	out = append(out, open...)
	out = append(out, frontmatter...)
	out = append(out, closing...)
	out = append(out, body...)
	return out
}

// Decode parses raw YAML frontmatter (without --- delimiters) into flat
// string metadata. Scalar values are kept verbatim ("3.0" stays "3.0"); a
// null value becomes the empty string.
func Decode(frontmatter []byte) (map[string]string, error) {
	fields := map[string]string{}
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return fields, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(frontmatter, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return fields, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: %w", k.Line, ErrNotMapping)
		}
		if v.Kind == yaml.AliasNode && v.Alias != nil {
			v = v.Alias
		}
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("field %q (line %d): %w", k.Value, k.Line, ErrNonScalarValue)
		}
		if _, dup := fields[k.Value]; dup {
			return nil, fmt.Errorf("field %q (line %d): %w", k.Value, k.Line, ErrDuplicateField)
		}
		if v.ShortTag() == "!!null" {
			fields[k.Value] = ""
			continue
		}
		fields[k.Value] = v.Value
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && (content[len(content)-1] == '\n')

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
