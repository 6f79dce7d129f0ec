package config

import (
	"log/slog"
	"strings"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// NormalizeLogLevel maps free-form input to a LogLevel, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn, "warning":
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Slog converts the level for slog.HandlerOptions.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// NormalizeLogFormat maps free-form input to a LogFormat, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	if LogFormat(strings.ToLower(strings.TrimSpace(raw))) == LogFormatJSON {
		return LogFormatJSON
	}
	return LogFormatText
}
