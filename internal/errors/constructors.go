package errors

// Convenience functions for common error patterns

// DecodingError reports a document or template that could not be parsed.
func DecodingError(filename string, cause error) *Error {
	return Wrap(cause, KindDecoding, SeverityFatal, "").
		WithContext("filename", filename)
}

// IOError wraps a failed filesystem operation.
func IOError(op, path string, cause error) *Error {
	return Wrap(cause, KindIO, SeverityFatal, op).
		WithContext("path", path)
}

// Config errors

func InvalidConfig(field, reason string) *Error {
	return New(KindInvalidConfig, SeverityFatal, reason).
		WithContext("field", field)
}

func ConfigNotFound(path string, cause error) *Error {
	return Wrap(cause, KindInvalidConfig, SeverityFatal, "configuration file not readable").
		WithContext("path", path)
}

// Rendering errors

func MissingTemplate(name, key string) *Error {
	return New(KindMissingTemplate, SeverityFatal, "").
		WithContext("template", name).
		WithContext("key", key)
}

// DuplicateKey reports two inputs that resolve to the same key. what names
// the input type ("document" or "template").
func DuplicateKey(what, key, first, second string) *Error {
	return New(KindDuplicateKey, SeverityFatal, what).
		WithContext("key", key).
		WithContext("first", first).
		WithContext("second", second)
}

func UnresolvedPlaceholder(template, field, key string) *Error {
	return New(KindUnresolvedPlaceholder, SeverityFatal, "").
		WithContext("template", template).
		WithContext("field", field).
		WithContext("key", key)
}

// Internal errors

func InternalError(message string, cause error) *Error {
	return Wrap(cause, KindInternal, SeverityFatal, message)
}
