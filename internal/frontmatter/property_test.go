package frontmatter

import (
	"maps"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestComposeDecodeProperties checks that metadata and body survive
// Compose followed by Split and Decode for generated inputs.
func TestComposeDecodeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("compose/split/decode round trip", prop.ForAll(
		func(fields map[string]string, body string) bool {
			doc, err := Compose(fields, []byte(body), Style{})
			if err != nil {
				return false
			}
			fm, gotBody, had, _, err := Split(doc)
			if err != nil || !had || string(gotBody) != body {
				return false
			}
			got, err := Decode(fm)
			if err != nil {
				return false
			}
			return maps.Equal(got, fields)
		},
		gen.MapOf(gen.Identifier(), gen.RegexMatch(`^[A-Za-z0-9 :#'"\-\[\]{},.!?\n\r]{0,24}$`)),
		gen.RegexMatch(`^[A-Za-z0-9 #\-\n\r]{0,40}$`),
	))

	properties.Property("split without delimiter keeps body", prop.ForAll(
		func(body string) bool {
			fm, got, had, _, err := Split([]byte(body))
			return err == nil && !had && fm == nil && string(got) == body
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
