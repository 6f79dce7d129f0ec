package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		stderr:  os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if e, ok := As(err); ok {
		return exitCodeForKind(e.Kind)
	}

	return 1
}

func exitCodeForKind(kind Kind) int {
	switch kind {
	case KindInvalidConfig:
		return 7 // Configuration error
	case KindDecoding, KindMissingTemplate, KindUnresolvedPlaceholder, KindDuplicateKey:
		return 3 // Bad site input
	case KindIO:
		return 11 // Filesystem error
	case KindInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if e, ok := As(err); ok {
		if a.verbose {
			return "Error: " + err.Error()
		}
		if d := e.Detail(); d != "" {
			return fmt.Sprintf("Error: %s (%s)", e.Kind.Description(), d)
		}
		return "Error: " + e.Kind.Description()
	}

	return fmt.Sprintf("Error: %v", err)
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	a.logError(err)
	fmt.Fprintln(a.stderr, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	e, ok := As(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}

	attrs := []slog.Attr{slog.String("kind", string(e.Kind))}
	for k, v := range e.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	if e.Cause != nil {
		attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	}
	a.logger.LogAttrs(context.Background(), levelForSeverity(e.Severity), e.Kind.Description(), attrs...)
}

func levelForSeverity(severity Severity) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
