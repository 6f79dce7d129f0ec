package document

import (
	"path"
	"strings"
	"time"
)

const datePrefixLayout = "2006-01-02"

// KeyOptions selects the per-site naming convention for document keys.
type KeyOptions struct {
	// DateDirs lays dated documents out as YYYY/MM/DD/slug instead of slug.
	DateDirs bool
}

// DeriveKey computes a document key from its source path relative to the
// documents directory. It is pure and total: every input yields a non-empty
// key. A leading YYYY-MM-DD- filename prefix is stripped and returned as
// date; the source extension is always stripped; parent directories are
// kept.
//
//	2021-01-01-hello.md      -> hello            (DateDirs: 2021/01/01/hello)
//	notes/2021-01-01-x.md    -> notes/x          (DateDirs: notes/2021/01/01/x)
//	about.md                 -> about
func DeriveKey(source string, opts KeyOptions) (key string, date time.Time) {
	clean := path.Clean("/" + strings.ReplaceAll(source, `\`, "/"))
	dir, file := path.Split(clean)
	dir = strings.TrimPrefix(dir, "/")

	stem := strings.TrimSuffix(file, path.Ext(file))
	if stem == "" {
		stem = file
	}

	slug := stem
	if d, rest, ok := splitDatePrefix(stem); ok {
		date = d
		slug = rest
		if slug == "" {
			slug = d.Format(datePrefixLayout)
		}
		if opts.DateDirs {
			dir += d.Format("2006/01/02") + "/"
		}
	}
	if slug == "" {
		slug = "index"
	}
	return dir + slug, date
}

// splitDatePrefix splits "2021-01-01-hello" into its date and "hello".
func splitDatePrefix(stem string) (time.Time, string, bool) {
	if len(stem) < len(datePrefixLayout) {
		return time.Time{}, "", false
	}
	d, err := time.Parse(datePrefixLayout, stem[:len(datePrefixLayout)])
	if err != nil {
		return time.Time{}, "", false
	}
	rest := stem[len(datePrefixLayout):]
	switch {
	case rest == "":
		return d, "", true
	case rest[0] == '-':
		return d, rest[1:], true
	default:
		return time.Time{}, "", false
	}
}
