package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"brewsignal/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestNewLogger_WritesJSONWithTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(config.LoggingConfig{Level: "debug", Output: "console"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	ctx := WithTraceID(context.Background(), "trace-123")
	WithComponent(logger, "allocation_engine").DebugContext(ctx, "scored", "bd_score", 42.5)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "scored", lines[0]["msg"])
	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, "trace-123", lines[0]["trace_id"])
	assert.Equal(t, "allocation_engine", lines[0]["component"])
	assert.Equal(t, 42.5, lines[0]["bd_score"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "warn", Output: "console"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestNewLogger_BothOutputs(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	logger, closer, err := NewLogger(config.LoggingConfig{Level: "info", Output: "both", FilePath: path}, &buf)
	require.NoError(t, err)

	logger.Info("ranked", "entities", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"ranked"`)
	assert.Contains(t, buf.String(), `"msg":"ranked"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestTraceIDHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	id := NewID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, NewID())
	assert.Equal(t, id, GetTraceID(WithTraceID(ctx, id)))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	spanCtx, span := tp.Tracer("test").Start(ctx, "op")
	defer span.End()
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(spanCtx), "span trace id is the fallback")
	assert.Equal(t, id, GetTraceID(WithTraceID(spanCtx, id)), "stored id wins")
}

func TestInitializeLogger_OnlyOnce(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"})
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, GetLogger())
}

func TestWithEntity(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "info", Output: "console"}, &buf)
	require.NoError(t, err)

	asOf := time.Date(2026, time.March, 2, 15, 4, 0, 0, time.UTC)
	WithEntity(logger, "frieren", asOf).Info("entity evaluated")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "frieren", lines[0]["entity_id"])
	assert.Equal(t, "2026-03-02", lines[0]["as_of"])
}
