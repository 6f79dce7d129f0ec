package frontmatter

import (
	"bytes"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encode serializes metadata into YAML bytes (without delimiters).
//
// Keys are sorted so output is stable, and every value is tagged as a string:
// values that YAML would otherwise read as numbers, booleans or null are
// quoted, which makes Encode followed by Decode lossless. Values holding a
// line break are always double quoted so leading and trailing breaks survive.
// If fields is empty, Encode returns an empty slice.
func Encode(fields map[string]string, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fields[k]}
		if strings.ContainsAny(value.Value, "\r\n") {
			value.Style = yaml.DoubleQuotedStyle
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			value,
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if nl != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(nl))
	}
	return out, nil
}

// Compose renders a complete document: a delimited metadata block followed
// by body. The block is always written, even for empty metadata, so a body
// that itself begins with "---" survives a round trip.
func Compose(fields map[string]string, body []byte, style Style) ([]byte, error) {
	fm, err := Encode(fields, style)
	if err != nil {
		return nil, err
	}
	return Join(fm, body, true, style), nil
}
