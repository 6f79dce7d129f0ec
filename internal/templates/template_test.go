package templates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewritePlaceholders(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: "<h1>{{title}}</h1>", want: `<h1>{{field "title"}}</h1>`},
		{name: "spaced", in: "{{ title }}", want: `{{field "title"}}`},
		{name: "dotted", in: "{{site.title}}", want: `{{field "site.title"}}`},
		{name: "dashed", in: "{{ last-updated }}", want: `{{field "last-updated"}}`},
		{name: "trim markers kept", in: "a {{- title -}} b", want: `a {{- field "title" -}} b`},
		{name: "keywords untouched", in: "{{if has \"draft\"}}D{{ else }}P{{end}}", want: "{{if has \"draft\"}}D{{ else }}P{{end}}"},
		{name: "field access untouched", in: "{{ .title }}", want: "{{ .title }}"},
		{name: "variables untouched", in: "{{ $x }}", want: "{{ $x }}"},
		{name: "no actions", in: "plain", want: "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, rewritePlaceholders(tt.in))
		})
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse("broken", "{{if}}")
	require.Error(t, err)
}

func TestParse_KeepsOriginalContent(t *testing.T) {
	tpl, err := Parse("default", "<h1>{{title}}</h1>")
	require.NoError(t, err)
	require.Equal(t, "default", tpl.Name)
	require.Equal(t, "<h1>{{title}}</h1>", tpl.Content)
}
