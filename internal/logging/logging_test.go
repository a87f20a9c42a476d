package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Format: "JSON"}, &buf)
	require.NoError(t, err)

	log.Debug("deref compiled", "matches", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "deref compiled", rec["msg"])
	assert.Equal(t, float64(3), rec["matches"])
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn"}, &buf)
	require.NoError(t, err)

	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "msg=shown")

	_, err = New(Config{Format: "xml"}, &buf)
	assert.Error(t, err)
}
