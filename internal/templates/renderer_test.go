package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/document"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

func mustStore(t *testing.T, templates map[string]string) *Store {
	t.Helper()
	var list []*Template
	for name, content := range templates {
		tpl, err := Parse(name, content)
		require.NoError(t, err)
		list = append(list, tpl)
	}
	s, err := NewStore(list...)
	require.NoError(t, err)
	return s
}

func mustDoc(t *testing.T, raw, source string) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(raw), source, document.KeyOptions{})
	require.NoError(t, err)
	return doc
}

func TestRender_TitleAndContent(t *testing.T) {
	r := NewRenderer(mustStore(t, map[string]string{"default": "<h1>{{title}}</h1>{{content}}"}), RenderOptions{})

	out, err := r.Render(mustDoc(t, "---\ntitle: Hello\n---\nWorld", "2021-01-01-hello.md"))
	require.NoError(t, err)
	require.Equal(t, "<h1>Hello</h1>World", string(out))
}

func TestRender_IsIdempotent(t *testing.T) {
	r := NewRenderer(mustStore(t, map[string]string{"default": "{{key}}|{{date}}|{{fingerprint}}|{{content}}"}), RenderOptions{})
	doc := mustDoc(t, "---\ntitle: A\n---\nbody", "2021-02-03-a.md")

	first, err := r.Render(doc)
	require.NoError(t, err)
	second, err := r.Render(doc)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Contains(t, string(first), "a|2021-02-03|")
}

func TestResolve(t *testing.T) {
	store := mustStore(t, map[string]string{"default": "D", "post": "P"})

	tests := []struct {
		name     string
		raw      string
		defName  string
		want     string
		wantKind sberrors.Kind
	}{
		{name: "unset uses default", raw: "body", want: "default"},
		{name: "explicit template", raw: "---\ntemplate: post\n---\n", want: "post"},
		{name: "layout alias", raw: "---\nlayout: post\n---\n", want: "post"},
		{name: "missing named has no fallback", raw: "---\ntemplate: nope\n---\n", wantKind: sberrors.KindMissingTemplate},
		{name: "missing default", raw: "body", defName: "home", wantKind: sberrors.KindMissingTemplate},
		{name: "configured default", raw: "body", defName: "post", want: "post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(store, RenderOptions{DefaultTemplate: tt.defName})
			tpl, err := r.Resolve(mustDoc(t, tt.raw, "x.md"))
			if tt.wantKind != "" {
				require.True(t, sberrors.IsKind(err, tt.wantKind))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, tpl.Name)
		})
	}
}

func TestRender_MissingTemplateNamesKey(t *testing.T) {
	r := NewRenderer(mustStore(t, map[string]string{"default": "D"}), RenderOptions{})
	_, err := r.Render(mustDoc(t, "---\ntemplate: gone\n---\n", "tech/a.md"))

	e, ok := sberrors.As(err)
	require.True(t, ok)
	require.Equal(t, sberrors.KindMissingTemplate, e.Kind)
	require.Equal(t, "gone", e.Context["template"])
	require.Equal(t, "tech/a", e.Context["key"])
}

func TestRender_UnresolvedPlaceholder(t *testing.T) {
	r := NewRenderer(mustStore(t, map[string]string{"default": "{{author}}"}), RenderOptions{})
	_, err := r.Render(mustDoc(t, "body", "a.md"))

	e, ok := sberrors.As(err)
	require.True(t, ok)
	require.Equal(t, sberrors.KindUnresolvedPlaceholder, e.Kind)
	require.Equal(t, "author", e.Context["field"])
	require.Equal(t, "default", e.Context["template"])
	require.Equal(t, "a", e.Context["key"])
}

func TestRender_Context(t *testing.T) {
	tpl := "{{title}}|{{body}}|{{site.name}}|{{site.revision}}|{{excerpt}}|{{if has \"draft\"}}draft{{else}}live{{end}}"
	r := NewRenderer(mustStore(t, map[string]string{"default": tpl}), RenderOptions{
		Site:     map[string]string{"name": "My Site"},
		Revision: "abc123",
	})

	out, err := r.Render(mustDoc(t, "first para\n\nsecond", "my-first_post.md"))
	require.NoError(t, err)
	require.Equal(t, "My First Post|first para\n\nsecond|My Site|abc123|first para|live", string(out))
}

func TestRender_MetadataOverridesDerivedFields(t *testing.T) {
	r := NewRenderer(mustStore(t, map[string]string{"default": "{{title}} {{date}}"}), RenderOptions{})
	out, err := r.Render(mustDoc(t, "---\ntitle: Custom\ndate: 1999-12-31\n---\n", "2021-01-01-x.md"))
	require.NoError(t, err)
	require.Equal(t, "Custom 1999-12-31", string(out))
}

func TestRender_Markdown(t *testing.T) {
	r := NewRenderer(mustStore(t, map[string]string{"default": "{{content}}\n<!-- {{excerpt}} -->\n{{body}}"}), RenderOptions{
		Markdown: markdown.New(markdown.Options{}),
	})
	out, err := r.Render(mustDoc(t, "Hello *there*\n", "a.md"))
	require.NoError(t, err)
	require.Equal(t, "<p>Hello <em>there</em></p>\n<!-- Hello there -->\nHello *there*\n", string(out))
}

func TestRender_ConcurrentUse(t *testing.T) {
	r := NewRenderer(mustStore(t, map[string]string{"default": "{{key}}"}), RenderOptions{})
	docs := []*document.Document{mustDoc(t, "a", "a.md"), mustDoc(t, "b", "b.md")}

	done := make(chan string, 20)
	for i := range 20 {
		go func(d *document.Document) {
			out, err := r.Render(d)
			if err != nil {
				done <- err.Error()
				return
			}
			done <- string(out)
		}(docs[i%2])
	}
	counts := map[string]int{}
	for range 20 {
		counts[<-done]++
	}
	require.Equal(t, map[string]int{"a": 10, "b": 10}, counts)
}

func TestRenderToFile_CreatesParentsAndOverwrites(t *testing.T) {
	r := NewRenderer(mustStore(t, map[string]string{"default": "{{content}}"}), RenderOptions{})
	dest := t.TempDir()
	out, err := OutputPath(dest, "tech/2021/01/01/hello", ".html")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dest, "tech", "2021", "01", "01", "hello.html"), out)

	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o750))
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o600))

	require.NoError(t, r.RenderToFile(mustDoc(t, "fresh", "hello.md"), out))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "fresh", string(got))

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestOutputPath(t *testing.T) {
	dest := filepath.Join("out", "site")

	p, err := OutputPath(dest, "hello", ".html")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dest, "hello.html"), p)

	p, err = OutputPath(dest, "hello", "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dest, "hello"), p)

	_, err = OutputPath(dest, "../escape", ".html")
	require.Error(t, err)

	_, err = OutputPath(dest, "", ".html")
	require.Error(t, err)
}
