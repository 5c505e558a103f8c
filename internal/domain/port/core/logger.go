package core

import "strings"

// LogLevel is the severity threshold a Logger filters on
type LogLevel int

const (
	// LogLevelDebug emits everything, including per-request detail
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the default operational level
	LogLevelInfo
	// LogLevelWarn emits warnings and errors only
	LogLevelWarn
	// LogLevelError emits errors only
	LogLevelError
)

// ParseLogLevel maps a configured level name to a LogLevel.
// Unknown names fall back to info.
func ParseLogLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the structured logging operations used across the module
type Logger interface {
	// SetLevel sets the minimum level to output
	SetLevel(level LogLevel)
	// GetLevel reports the current minimum level
	GetLevel() LogLevel
	// Debug logs detailed diagnostic messages
	Debug(message string, fields map[string]any)
	// Info logs operational messages
	Info(message string, fields map[string]any)
	// Warn logs warning messages
	Warn(message string, fields map[string]any)
	// Error logs error messages
	Error(message string, fields map[string]any)
	// Flush writes any buffered entries to their destination
	Flush() error
}
