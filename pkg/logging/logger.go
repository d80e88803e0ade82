package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// NewJSONLogger writes JSON lines at or above min to out.
func NewJSONLogger(out io.Writer, min Level) *JSONLogger {
	return &JSONLogger{out: out, min: min}
}

func (l *JSONLogger) emit(level Level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.min {
		return
	}

	entry := LogEntry{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	if n := len(l.preset) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range l.preset {
			entry.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.out, `{"level":"ERROR","msg":"unencodable log entry: %v"}`+"\n", err)
		return
	}
	l.out.Write(append(line, '\n'))
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.emit(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.emit(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.emit(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.emit(ErrorLevel, msg, fields) }

// With derives a child logger that always carries the given fields.
// Later fields with the same key win over earlier ones.
func (l *JSONLogger) With(fields ...Field) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	preset := make([]Field, 0, len(l.preset)+len(fields))
	preset = append(preset, l.preset...)
	preset = append(preset, fields...)
	return &JSONLogger{out: l.out, min: l.min, preset: preset}
}

// SetLevel changes the minimum level, e.g. after a config reload.
func (l *JSONLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.min = level
}

// GetLevel returns the current minimum level.
func (l *JSONLogger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.min
}

var (
	defaultLogger Logger
	defaultOnce   sync.Once
)

// DefaultLogger is the process-wide fallback used at the edges (CLI
// startup, panics). Engine components always receive an injected logger
// instead. Level comes from LOG_LEVEL on first use.
func DefaultLogger() Logger {
	defaultOnce.Do(func() {
		if defaultLogger == nil {
			defaultLogger = NewJSONLogger(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")))
		}
	})
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide fallback (tests).
func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// Package-level helpers on the default logger.

func Debug(msg string, fields ...Field) { DefaultLogger().Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { DefaultLogger().Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { DefaultLogger().Warn(msg, fields...) }

// ErrorLog avoids a name clash with the Error field constructor.
func ErrorLog(msg string, fields ...Field) { DefaultLogger().Error(msg, fields...) }

// With derives a child of the default logger.
func With(fields ...Field) Logger { return DefaultLogger().With(fields...) }
