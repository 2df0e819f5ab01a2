package app

import (
	"bytes"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansiPattern.ReplaceAllString(s, "") }

func TestPrettyHandler_PlainLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, nil, false))
	log.Info("http.request",
		"method", "post",
		"route", "/api/v1/users/{username}",
		"status", 201,
		"duration_ms", int64(12),
		"user_agent", "curl 8",
	)

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no ANSI codes without color")
	for _, want := range []string{
		"INFO ",
		"http.request",
		"method=POST",
		"route=/api/v1/users/{username}",
		"status=201",
		"duration_ms=12ms",
		`user_agent="curl 8"`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestPrettyHandler_ColorStripsToPlain(t *testing.T) {
	t.Parallel()

	var colored, plain bytes.Buffer
	for _, c := range []struct {
		buf   *bytes.Buffer
		color bool
	}{{&colored, true}, {&plain, false}} {
		log := slog.New(newPrettyHandler(c.buf, nil, c.color))
		log.Error("auth.session.issue.fail", "status", 500, "err", errors.New("boom"))
	}

	require.Contains(t, colored.String(), ansiRed)
	// Timestamps differ between the two records; compare from the level tag on.
	trim := func(s string) string { return s[strings.Index(s, "ERROR"):] }
	assert.Equal(t, trim(plain.String()), trim(stripANSI(colored.String())))
}

func TestPrettyHandler_GroupsAndLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}, false)
	log := slog.New(h).WithGroup("db").With("pool", "main")

	log.Info("dropped")
	log.Warn("db.connect.retry", slog.Group("retry", "attempt", 2))

	out := buf.String()
	assert.NotContains(t, out, "dropped", "info is filtered at warn level")
	for _, want := range []string{"WARN ", "db.pool=main", "db.retry.attempt=2"} {
		assert.Contains(t, out, want)
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":          `""`,
		"plain":     "plain",
		"two words": `"two words"`,
		"k=v":       `"k=v"`,
	}
	for in, want := range cases {
		assert.Equal(t, want, quoteIfNeeded(in), "quoteIfNeeded(%q)", in)
	}
}
