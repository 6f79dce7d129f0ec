// Package templates loads the site's page templates and renders documents
// through them.
//
// Templates use text/template syntax. In addition, a bare {{name}} or
// {{ name }} action names a document field: it is rewritten at load time to
// a call of the field function, so an unknown field fails the render with an
// unresolved-placeholder error instead of printing "<no value>".
package templates

import (
	"fmt"
	"regexp"
	"strconv"
	"text/template"
)

// Template is one parsed template file.
type Template struct {
	// Name is the filename stem, unique within a Store.
	Name string
	// Content is the source text as read from disk.
	Content string
	// Path is the source file, empty for templates built in memory.
	Path string

	tpl *template.Template
}

var placeholderPattern = regexp.MustCompile(`\{\{(-\s+)?\s*([A-Za-z_][A-Za-z0-9_.\-]*)\s*(\s+-)?\}\}`)

// Words that must keep their text/template meaning.
var actionKeywords = map[string]bool{
	"if": true, "else": true, "end": true, "range": true, "with": true,
	"define": true, "block": true, "template": true, "break": true,
	"continue": true, "nil": true, "true": true, "false": true,
}

// rewritePlaceholders turns every bare field action into a field call.
func rewritePlaceholders(src string) string {
	return placeholderPattern.ReplaceAllStringFunc(src, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		name := sub[2]
		if actionKeywords[name] {
			return m
		}
		return "{{" + sub[1] + "field " + strconv.Quote(name) + sub[3] + "}}"
	})
}

// Parse compiles content into a Template named name. Syntax errors are
// returned as-is; Load wraps them with the file name.
func Parse(name, content string) (*Template, error) {
	tpl, err := template.New(name).
		Funcs(placeholderFuncs(nil)).
		Option("missingkey=error").
		Parse(rewritePlaceholders(content))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return &Template{Name: name, Content: content, tpl: tpl}, nil
}

// missingFieldError is returned by the field function for unknown names.
type missingFieldError struct {
	field string
}

func (e *missingFieldError) Error() string {
	return fmt.Sprintf("no value for field %q", e.field)
}

// placeholderFuncs binds the field helpers to one render context. A nil
// context is used at parse time, when only the signatures matter.
func placeholderFuncs(ctx Context) template.FuncMap {
	return template.FuncMap{
		"field": func(name string) (string, error) {
			v, ok := ctx[name]
			if !ok {
				return "", &missingFieldError{field: name}
			}
			return v, nil
		},
		"has": func(name string) bool {
			_, ok := ctx[name]
			return ok
		},
		"get": func(name string) string {
			return ctx[name]
		},
	}
}
