package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLineCarriesServiceAndHostname(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "pos-api", "info")

	log.Debug("hidden")
	log.Info("order committed", "order_id", "o-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "pos-api", line["service"])
	assert.Contains(t, line, "hostname")
	assert.Contains(t, line, "timestamp")
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "o-1", line["order_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
