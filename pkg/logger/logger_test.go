package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" debug "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nope"))
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: slog.LevelWarn, Format: FormatJSON, Output: &buf})

	l.Info("hidden")
	Component(l, "api").Warn("shown", KeyClassID, "c1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "api", rec[KeyComponent])
	assert.Equal(t, "c1", rec[KeyClassID])
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
