package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestSetupJSONAddsServiceAndVersion(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("unlisted-stocks", "1.2.3", "json", slog.LevelInfo, &buf)

	logger.Info("hello", "key", "value")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "unlisted-stocks", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "value", entry["key"])
}

func TestSetupTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("svc", "dev", "text", slog.LevelInfo, &buf)

	logger.Info("hello")

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "service=svc")
}

func TestSetupRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("svc", "dev", "json", slog.LevelWarn, &buf)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.With("component", "http").Warn("kept")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "http", entry["component"])
	assert.Equal(t, "svc", entry["service"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLogErrorWithOops(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("svc", "dev", "json", slog.LevelDebug, &buf)

	err := oops.Code("DB_QUERY_FAILED").With("operation", "create stock").Wrap(errors.New("connection reset"))
	LogError(logger, "request failed", err, "path", "/api/stock")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "request failed", entry["msg"])
	assert.Equal(t, "DB_QUERY_FAILED", entry["code"])
	assert.Equal(t, "/api/stock", entry["path"])
	assert.True(t, strings.Contains(entry["error"].(string), "connection reset"))
	ctx, ok := entry["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "create stock", ctx["operation"])
}

func TestLogErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("svc", "dev", "json", slog.LevelDebug, &buf)

	LogError(logger, "boom", errors.New("plain"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "plain", entry["error"])
	assert.Equal(t, "ERROR", entry["level"])
}
