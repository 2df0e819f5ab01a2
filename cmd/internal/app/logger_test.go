package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "unknown", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, parseLogLevel(tc.in), "parseLogLevel(%q)", tc.in)
	}
}

func restoreDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestNewLogger_JSONCarriesRequestID(t *testing.T) {
	restoreDefaultLogger(t)

	var buf bytes.Buffer
	log := NewLogger("info", "json", &buf)

	ctx := context.WithValue(context.Background(), requestIDKey{}, "01J0000000000000000000TEST")
	log.InfoContext(ctx, "auth.user.created", "user_id", "u-1")
	log.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug must be filtered: %q", buf.String())

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "auth.user.created", rec["msg"])
	assert.Equal(t, "u-1", rec["user_id"])
	assert.Equal(t, "01J0000000000000000000TEST", rec["request_id"])
}

func TestNewLogger_WithAttrsKeepsRequestID(t *testing.T) {
	restoreDefaultLogger(t)

	var buf bytes.Buffer
	log := NewLogger("debug", "pretty", &buf).With("component", "test")

	ctx := context.WithValue(context.Background(), requestIDKey{}, "rid-1")
	log.DebugContext(ctx, "x")

	out := buf.String()
	for _, want := range []string{"DEBUG", "component=test", "request_id=rid-1"} {
		assert.Contains(t, out, want)
	}
}
