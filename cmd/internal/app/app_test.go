package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"authcore/cmd/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, environ map[string]string) Config {
	t.Helper()
	base := map[string]string{
		"AUTHCORE_ENV":    EnvTest,
		"AUTHCORE_PEPPER": "app-test-pepper",
	}
	for k, v := range environ {
		base[k] = v
	}
	cfg, err := loadConfig(base)
	require.NoError(t, err)
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_MissingPepperIsConfigurationError(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, map[string]string{"AUTHCORE_PEPPER": ""})
	_, err := New(context.Background(), cfg, discardLogger())
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err), "got %v", err)
}

func TestNew_InvalidSessionSettings(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, map[string]string{
		"AUTHCORE_SESSION_TTL":         "1h",
		"AUTHCORE_SESSION_RENEW_AFTER": "2h",
	})
	_, err := New(context.Background(), cfg, discardLogger())
	assert.True(t, apperr.IsConfiguration(err), "got %v", err)
}

func TestApp_InMemoryEndToEnd(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(t, nil), discardLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	client := srv.Client()

	do := func(method, path, body, cookie string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		if cookie != "" {
			req.Header.Set("Cookie", "session_id="+cookie)
		}
		res, err := client.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Body.Close() })
		return res
	}

	res := do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get(RequestIDHeader))

	res = do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = do(http.MethodPost, "/api/v1/users", `{"username":"e2e","email":"e2e@example.com","password":"pw"}`, "")
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = do(http.MethodPost, "/api/v1/sessions", `{"email":"e2e@example.com","password":"pw"}`, "")
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var sess struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&sess))
	require.Len(t, sess.Token, 96)

	res = do(http.MethodGet, "/api/v1/user", "", sess.Token)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = do(http.MethodDelete, "/api/v1/sessions", "", sess.Token)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = do(http.MethodGet, "/api/v1/user", "", sess.Token)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = do(http.MethodPut, "/healthz", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res = do(http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = do(http.MethodGet, "/api/v1/migrations", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	res = do(http.MethodGet, "/api/v1/status", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	metricsOut := string(raw)
	assert.Contains(t, metricsOut, `authcore_session_events_total{event="issued"} 1`)
	assert.Contains(t, metricsOut, `authcore_session_events_total{event="revoked"} 1`)
	assert.Contains(t, metricsOut, `authcore_password_operation_duration_seconds_count{op="hash"} 1`)
	assert.Contains(t, metricsOut, `route="/api/v1/users"`)
}

func TestReadyz_RequireDBWithoutDatabase(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(t, map[string]string{"AUTHCORE_READINESS_REQUIRE_DB": "true"}), discardLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	rr := httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestNonZeroDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Second, nonZeroDuration(0, time.Second))
	assert.Equal(t, 2*time.Second, nonZeroDuration(2*time.Second, time.Second))
	assert.Equal(t, 7, nonZeroInt(-1, 7))
	assert.Equal(t, 3, nonZeroInt(3, 7))
}
