package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToHTMLString_RendersGFM(t *testing.T) {
	c := New(Options{})

	out, err := c.ToHTMLString("# Title\n\nSome ~~old~~ text.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	require.Contains(t, out, "<h1>Title</h1>")
	require.Contains(t, out, "<del>old</del>")
	require.Contains(t, out, "<table>")
}

func TestToHTMLString_RawHTMLOnlyWhenUnsafe(t *testing.T) {
	src := "<div class=\"x\">raw</div>\n"

	safe, err := New(Options{}).ToHTMLString(src)
	require.NoError(t, err)
	require.NotContains(t, safe, `<div class="x">`)

	unsafe, err := New(Options{Unsafe: true}).ToHTMLString(src)
	require.NoError(t, err)
	require.Contains(t, unsafe, `<div class="x">raw</div>`)
}

func TestToHTMLString_IsDeterministic(t *testing.T) {
	c := New(Options{})
	a, err := c.ToHTMLString("hello *world*\n")
	require.NoError(t, err)
	b, err := c.ToHTMLString("hello *world*\n")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, "<p>hello <em>world</em></p>", a)
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "first paragraph", in: "<h1>T</h1><p>First  <em>one</em>\n here.</p><p>Second</p>", want: "First one here."},
		{name: "skips empty paragraph", in: "<p> </p><p>Body</p>", want: "Body"},
		{name: "no paragraph", in: "<h2>Only heading</h2>", want: ""},
		{name: "empty input", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Excerpt(tt.in))
		})
	}
}

func TestTextExcerpt(t *testing.T) {
	require.Equal(t, "First para spans lines.", TextExcerpt("\n\nFirst para\nspans lines.\r\n\r\nSecond"))
	require.Equal(t, "World", TextExcerpt("World"))
	require.Empty(t, TextExcerpt("  \n\n \n"))
}
