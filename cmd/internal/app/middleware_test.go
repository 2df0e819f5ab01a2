package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"authcore/cmd/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogMeta(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status     int
		wantLevel  slog.Level
		wantResult string
		wantClass  string
	}{
		{status: 200, wantLevel: slog.LevelInfo, wantResult: "success", wantClass: "2xx"},
		{status: 302, wantLevel: slog.LevelInfo, wantResult: "redirect", wantClass: "3xx"},
		{status: 404, wantLevel: slog.LevelWarn, wantResult: "client_error", wantClass: "4xx"},
		{status: 503, wantLevel: slog.LevelError, wantResult: "server_error", wantClass: "5xx"},
	}

	for _, tc := range cases {
		level, result := requestLogMeta(tc.status)
		assert.Equal(t, tc.wantLevel, level, "status=%d", tc.status)
		assert.Equal(t, tc.wantResult, result, "status=%d", tc.status)
		assert.Equal(t, tc.wantClass, statusClass(tc.status), "status=%d", tc.status)
	}
}

func newLoggedRouter(buf *bytes.Buffer, rec *metrics.Recorder) http.Handler {
	log := slog.New(requestIDHandler{slog.NewJSONHandler(buf, nil)})

	r := chi.NewRouter()
	r.Use(WithRequestLogging(log, rec))
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := RequestIDFrom(r.Context()); !ok {
			http.Error(w, "missing request id", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})
	return r
}

func TestWithRequestLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rec := metrics.New()
	h := newLoggedRouter(&buf, rec)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/42", nil))

	require.Equal(t, http.StatusTeapot, rr.Code)
	id := rr.Header().Get(RequestIDHeader)
	_, err := ulid.ParseStrict(id)
	require.NoError(t, err, "request id %q is not a ULID", id)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), "log: %q", buf.String())
	assert.Equal(t, "http.request", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/things/{id}", entry["route"])
	assert.Equal(t, "/things/42", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(len("short and stout")), entry["bytes"])
	assert.Equal(t, id, entry["request_id"])

	mrr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, mrr.Body.String(), `authcore_http_requests_total{method="GET",route="/things/{id}",status="418"} 1`)
}

func TestWithRequestLogging_RequestIDPropagation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newLoggedRouter(&buf, nil)

	incoming := ulid.Make().String()
	req := httptest.NewRequest(http.MethodGet, "/things/1", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, incoming, rr.Header().Get(RequestIDHeader), "valid incoming id is kept")

	req = httptest.NewRequest(http.MethodGet, "/things/1", nil)
	req.Header.Set(RequestIDHeader, "not-a-ulid\r\ninjected")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	got := rr.Header().Get(RequestIDHeader)
	_, err := ulid.ParseStrict(got)
	assert.NoError(t, err, "invalid incoming id must be replaced, got %q", got)
}
