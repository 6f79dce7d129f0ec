package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyKey        = "key"
	KeyTemplate   = "template"
	KeyCount      = "count"
	KeySource     = "source"
	KeyDest       = "dest"
	KeyWorkers    = "workers"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Template(n string) slog.Attr     { return slog.String(KeyTemplate, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Dest(p string) slog.Attr         { return slog.String(KeyDest, p) }
func Workers(n int) slog.Attr         { return slog.Int(KeyWorkers, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
