package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, line []byte) LogEntry {
	t.Helper()
	var entry LogEntry
	require.NoError(t, json.Unmarshal(line, &entry))
	return entry
}

func TestLevelRoundTrip(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}
	for _, tt := range tests {
		t.Run("parse_"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}

	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "WARN", WarnLevel.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestDomainFieldHelpers(t *testing.T) {
	assert.Equal(t, Field{Key: "project_id", Value: "plant-a"}, ProjectID("plant-a"))
	assert.Equal(t, Field{Key: "node_id", Value: "n-17"}, NodeID("n-17"))
	assert.Equal(t, Field{Key: "edge_id", Value: "e-3"}, EdgeID("e-3"))
	assert.Equal(t, Field{Key: "data_object_id", Value: "d-9"}, DataObjectID("d-9"))
	assert.Equal(t, Field{Key: "savepoint_id", Value: "sp-1"}, SavepointID("sp-1"))
	assert.Equal(t, Field{Key: "operation", Value: "create_node"}, Operation("create_node"))
	assert.Equal(t, Field{Key: "component", Value: "model-store"}, Component("model-store"))
	assert.Equal(t, Field{Key: "count", Value: 4}, Count(4))
	assert.Equal(t, Field{Key: "latency", Value: "250ms"}, Latency(250*time.Millisecond))
}

func TestGenericFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 7}, Int("n", 7))
	assert.Equal(t, Field{Key: "n", Value: int64(1 << 40)}, Int64("n", 1<<40))
	assert.Equal(t, Field{Key: "n", Value: uint64(9)}, Uint64("n", 9))
	assert.Equal(t, Field{Key: "r", Value: 0.5}, Float64("r", 0.5))
	assert.Equal(t, Field{Key: "ok", Value: true}, Bool("ok", true))
	assert.Equal(t, Field{Key: "timeout", Value: "5s"}, Duration("timeout", 5*time.Second))
	assert.Equal(t, Field{Key: "error", Value: "backend down"}, Error(errors.New("backend down")))
	assert.Equal(t, Field{Key: "error", Value: nil}, Error(nil))
	assert.Equal(t, "payload", Any("payload", map[string]int{"a": 1}).Key)
}

func TestJSONLoggerEmitsOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("node created", NodeID("n-1"), Operation("create_node"))

	entry := decodeLine(t, buf.Bytes())
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "node created", entry.Message)
	assert.Equal(t, "n-1", entry.Fields["node_id"])
	assert.Equal(t, "create_node", entry.Fields["operation"])
	assert.NotEmpty(t, entry.Time)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestJSONLoggerFiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("handle resolved")
	logger.Info("model refreshed")
	logger.Warn("component-data links unavailable")
	logger.Error("savepoint restore failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "WARN", decodeLine(t, []byte(lines[0])).Level)
	assert.Equal(t, "ERROR", decodeLine(t, []byte(lines[1])).Level)
}

func TestWithCarriesPresetFieldsToEveryLine(t *testing.T) {
	var buf bytes.Buffer
	root := NewJSONLogger(&buf, InfoLevel)

	child := root.With(Component("model-store"), ProjectID("plant-a"))
	child.Info("edge deleted", EdgeID("e-3"))

	entry := decodeLine(t, buf.Bytes())
	assert.Equal(t, "model-store", entry.Fields["component"])
	assert.Equal(t, "plant-a", entry.Fields["project_id"])
	assert.Equal(t, "e-3", entry.Fields["edge_id"])

	// The root is unaffected by the derivation.
	buf.Reset()
	root.Info("listening")
	assert.Nil(t, decodeLine(t, buf.Bytes()).Fields)
}

func TestWithLaterFieldsOverrideEarlier(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel).
		With(Component("engine")).
		With(Component("selection"))

	logger.Info("selection cleared")
	assert.Equal(t, "selection", decodeLine(t, buf.Bytes()).Fields["component"])
}

func TestSetLevelTakesEffectImmediately(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	require.Equal(t, InfoLevel, logger.GetLevel())

	logger.SetLevel(ErrorLevel)
	logger.Info("suppressed")
	assert.Zero(t, buf.Len())

	logger.Error("surfaced")
	assert.NotZero(t, buf.Len())
	assert.Equal(t, ErrorLevel, logger.GetLevel())
}

func TestFieldsKeyOmittedWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("bare message")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	_, present := raw["fields"]
	assert.False(t, present, "empty fields map must be omitted")
}

func TestDefaultLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))

	Debug("a")
	Info("b")
	Warn("c")
	ErrorLog("d")
	With(String("service", "secudo-engine")).Info("e")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "DEBUG", decodeLine(t, []byte(lines[0])).Level)
	assert.Equal(t, "ERROR", decodeLine(t, []byte(lines[3])).Level)
	assert.Equal(t, "secudo-engine", decodeLine(t, []byte(lines[4])).Fields["service"])
}

func TestTimedOperationLogsLatency(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	StartTimer(logger, "savepoint restored", SavepointID("sp-1")).End()

	entry := decodeLine(t, buf.Bytes())
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "savepoint restored", entry.Message)
	assert.Equal(t, "sp-1", entry.Fields["savepoint_id"])
	assert.Contains(t, entry.Fields, "latency")
}

func TestTimedOperationEndError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	StartTimer(logger, "savepoint restore", SavepointID("sp-1")).
		EndError(errors.New("backend down"))

	entry := decodeLine(t, buf.Bytes())
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "backend down", entry.Fields["error"])
	assert.Contains(t, entry.Fields, "latency")

	// A nil logger is tolerated so timers never need nil checks.
	StartTimer(nil, "noop").End()
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("dropped", NodeID("n-1"))
	logger.SetLevel(DebugLevel)
	assert.Equal(t, InfoLevel, logger.GetLevel())
	assert.Equal(t, logger, logger.With(Component("x")))
}

func BenchmarkJSONLoggerInfo(b *testing.B) {
	logger := NewJSONLogger(&bytes.Buffer{}, InfoLevel)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("node created", NodeID("n-1"), Operation("create_node"))
	}
}

func BenchmarkJSONLoggerFiltered(b *testing.B) {
	logger := NewJSONLogger(&bytes.Buffer{}, ErrorLevel)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("handle resolved", NodeID("n-1"))
	}
}
