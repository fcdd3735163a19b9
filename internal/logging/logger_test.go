package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "json")

	logger.Debug("Client connected", "connection_id", "c-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "Client connected", entry["msg"])
	assert.Equal(t, "c-1", entry["connection_id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept", "reason", "liveness_timeout")
	assert.Contains(t, buf.String(), "reason=liveness_timeout")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = New(&buf, "info", "text")
	t.Cleanup(func() { Logger = prev })

	WithUser("u-9").Info("login")
	WithError(errors.New("boom")).Info("failed")

	out := buf.String()
	assert.Contains(t, out, "user_id=u-9")
	assert.Contains(t, out, "error=boom")
}
