// Package logging is the structured JSON logger shared by the model
// engine, the reference persistence server and the CLI. Components
// receive a Logger and derive children with With, so every line an
// engine instance emits carries its project id.
package logging

import (
	"io"
	"sync"
)

// Level orders log severities. Anything below the logger's minimum is
// discarded before any fields are evaluated into a map.
type Level int

const (
	// DebugLevel traces individual mutations and replays. Off in production.
	DebugLevel Level = iota
	// InfoLevel is the default: operation outcomes, refreshes, restores.
	InfoLevel
	// WarnLevel marks degraded-but-working states, such as a refresh with
	// partially unavailable link tables.
	WarnLevel
	// ErrorLevel marks failed operations that surfaced to the caller.
	ErrorLevel
)

// String returns the wire form used in the "level" JSON key.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel reads a level from config or LOG_LEVEL, case-insensitively.
// Unrecognized input falls back to InfoLevel rather than failing startup.
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG", "debug":
		return DebugLevel
	case "INFO", "info":
		return InfoLevel
	case "WARN", "warn", "WARNING", "warning":
		return WarnLevel
	case "ERROR", "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field is one structured key/value pair. Use the constructors in this
// package; the domain helpers (ProjectID, NodeID, SavepointID, ...) keep
// key names consistent across the engine, server and CLI.
type Field struct {
	Key   string
	Value any
}

// Logger is the logging contract injected into every component.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With derives a child logger whose lines always carry the given
	// fields, e.g. a component name and project id.
	With(fields ...Field) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// JSONLogger writes one JSON object per line. Writes are serialized, so
// one instance may be shared across engine goroutines.
type JSONLogger struct {
	mu     sync.Mutex
	out    io.Writer
	min    Level
	preset []Field
}

// LogEntry is the JSON shape of one line. Tests unmarshal into it.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger discards everything. The engine defaults to it when a caller
// passes a nil logger, so library code never nil-checks.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (n NopLogger) With(fields ...Field) Logger     { return n }
func (NopLogger) SetLevel(level Level)              {}
func (NopLogger) GetLevel() Level                   { return InfoLevel }

// NewNopLogger returns a logger that discards all output.
func NewNopLogger() Logger {
	return NopLogger{}
}
