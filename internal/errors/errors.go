// Package errors provides the structured error type shared by every stage of a
// site build. An Error carries a closed Kind tag, a severity, a message, an
// optional wrapped cause and structured context fields. The diagnostic
// headline is derived from the Kind, never hand-written at the call site.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an Error. The set is closed: callers switch on it to pick
// exit codes and log levels.
type Kind string

const (
	// KindDecoding marks a document or template that could not be parsed.
	KindDecoding Kind = "decoding"
	// KindIO marks a failed filesystem operation.
	KindIO Kind = "io"
	// KindInvalidConfig marks an invalid configuration file or flag value.
	KindInvalidConfig Kind = "invalid_config"
	// KindMissingTemplate marks a template name absent from the store.
	KindMissingTemplate Kind = "missing_template"
	// KindDuplicateKey marks two documents (or templates) sharing a key.
	KindDuplicateKey Kind = "duplicate_key"
	// KindUnresolvedPlaceholder marks a template field with no value.
	KindUnresolvedPlaceholder Kind = "unresolved_placeholder"
	// KindInternal marks a bug or an unexpected state.
	KindInternal Kind = "internal"
)

// Description returns the headline shown for errors of this kind.
func (k Kind) Description() string {
	switch k {
	case KindDecoding:
		return "error decoding file"
	case KindIO:
		return "encountered an I/O error"
	case KindInvalidConfig:
		return "invalid configuration"
	case KindMissingTemplate:
		return "template not found"
	case KindDuplicateKey:
		return "duplicate key"
	case KindUnresolvedPlaceholder:
		return "unresolved template placeholder"
	default:
		return "internal error"
	}
}

// Severity indicates how critical an error is
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // Stops the build
	SeverityError   Severity = "error"   // Error, but not fatal
	SeverityWarning Severity = "warning" // Continues with degraded output
)

// ContextFields carries structured context for Error
type ContextFields map[string]any

// Error is a structured error with kind, severity and context
type Error struct {
	Kind     Kind          `json:"kind"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message,omitempty"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// detailKeys lists the context fields rendered by Detail, in display order.
var detailKeys = []string{"filename", "path", "key", "template", "field", "first", "second", "op"}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Description())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if d := e.Detail(); d != "" {
		b.WriteString(" (")
		b.WriteString(d)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Detail renders the well-known context fields as "name=value" pairs.
// Unknown fields follow in sorted order.
func (e *Error) Detail() string {
	if len(e.Context) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e.Context))
	seen := make(map[string]bool, len(detailKeys))
	for _, k := range detailKeys {
		if v, ok := e.Context[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
			seen[k] = true
		}
	}
	rest := make([]string, 0)
	for k := range e.Context {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}
	return strings.Join(parts, " ")
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. This lets callers
// write errors.Is(err, &Error{Kind: KindDecoding}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Cause == nil && len(t.Context) == 0
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new Error
func New(kind Kind, severity Severity, message string) *Error {
	return &Error{
		Kind:     kind,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new Error that wraps an existing error
func Wrap(err error, kind Kind, severity Severity, message string) *Error {
	return &Error{
		Kind:     kind,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind checks if any error in err's chain is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetKind extracts the kind from an error, or returns KindInternal if err
// carries no *Error
func GetKind(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
