package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode_EmptyMap_ReturnsEmpty(t *testing.T) {
	out, err := Encode(map[string]string{}, Style{Newline: "\n"})
	require.NoError(t, err)
	require.Equal(t, "", string(out))
}

func TestEncode_DeterministicOrderAndTrailingNewline(t *testing.T) {
	fields := map[string]string{
		"b": "two",
		"a": "one",
		"c": "3",
	}

	out1, err := Encode(fields, Style{Newline: "\n"})
	require.NoError(t, err)
	out2, err := Encode(fields, Style{Newline: "\n"})
	require.NoError(t, err)
	// Must be stable across runs.
	require.Equal(t, string(out1), string(out2))

	// Values that would read back as numbers are quoted.
	require.Equal(t, "a: one\nb: two\nc: \"3\"\n", string(out1))
}

func TestEncode_NewlineStyle_CRLF(t *testing.T) {
	out, err := Encode(map[string]string{"a": "one"}, Style{Newline: "\r\n"})
	require.NoError(t, err)
	require.Equal(t, "a: one\r\n", string(out))
}

func TestEncode_LineBreaksAreDoubleQuoted(t *testing.T) {
	out, err := Encode(map[string]string{"title": "\n"}, Style{Newline: "\n"})
	require.NoError(t, err)
	require.Equal(t, "title: \"\\n\"\n", string(out))

	fields, err := Decode(out)
	require.NoError(t, err)
	require.Equal(t, "\n", fields["title"])
}

func TestEncode_CRLFStyleKeepsMultilineValues(t *testing.T) {
	want := map[string]string{"summary": "one\ntwo\n"}
	doc, err := Compose(want, []byte("body\r\n"), Style{Newline: "\r\n"})
	require.NoError(t, err)

	fm, body, had, style, err := Split(doc)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "\r\n", style.Newline)
	require.Equal(t, "body\r\n", string(body))

	fields, err := Decode(fm)
	require.NoError(t, err)
	require.Equal(t, want, fields)
}

func TestCompose_RoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		body   string
	}{
		{"typical post", map[string]string{"title": "Hello", "template": "post"}, "World"},
		{"typed-looking scalars", map[string]string{"n": "42", "b": "false", "z": "null", "t": "~", "e": ""}, "x\n"},
		{"punctuation", map[string]string{"title": "a: b # c", "quote": `say "hi"`, "lead": "  spaced"}, ""},
		{"multiline value", map[string]string{"summary": "line one\nline two\n"}, "body\n"},
		{"no metadata", map[string]string{}, "---\nnot metadata\n"},
		{"only newlines", map[string]string{"a": "\n", "b": "\n\n", "c": "\r\n"}, "body"},
		{"leading and trailing breaks", map[string]string{"title": "\nHello\n\n", "cr": "a\rb"}, "\n---\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Compose(tc.fields, []byte(tc.body), Style{})
			require.NoError(t, err)

			fm, body, had, _, err := Split(doc)
			require.NoError(t, err)
			require.True(t, had)
			require.Equal(t, tc.body, string(body))

			fields, err := Decode(fm)
			require.NoError(t, err)
			require.Equal(t, tc.fields, fields)
		})
	}
}
