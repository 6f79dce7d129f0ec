package markdown

import (
	"strings"

	"golang.org/x/net/html"
)

// Excerpt returns the whitespace-collapsed text of the first non-empty <p>
// element in rendered HTML, or "" when there is none.
func Excerpt(rendered string) string {
	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return ""
	}

	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "p" {
			if t := strings.Join(strings.Fields(extractText(n)), " "); t != "" {
				found = t
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return found
}

func extractText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// TextExcerpt returns the first blank-line separated paragraph of a plain
// text body, whitespace-collapsed.
func TextExcerpt(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	for _, para := range strings.Split(body, "\n\n") {
		if t := strings.Join(strings.Fields(para), " "); t != "" {
			return t
		}
	}
	return ""
}
