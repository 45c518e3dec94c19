package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mx-space/asset-gateway/internal/config"
	"github.com/mx-space/asset-gateway/internal/pkg/jwt"
	pkgredis "github.com/mx-space/asset-gateway/internal/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDeleter struct {
	mu      sync.Mutex
	tokens  []string
	batches int
	failOn  map[string]bool
}

func (f *fakeDeleter) DeleteByToken(_ context.Context, token string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	if f.failOn[token] {
		return nil, errors.New("Invalid token")
	}
	return json.RawMessage(`{"result":"ok"}`), nil
}

func (f *fakeDeleter) DeleteResources(_ context.Context, publicIDs []string, _, _ string, _ bool) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	if f.failOn[publicIDs[0]] {
		return nil, errors.New("boom")
	}
	return json.RawMessage(`{"deleted":{"x":"deleted"}}`), nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Port:        2333,
		Env:         "production",
		RoutePrefix: config.DefaultRoutePrefix,
		RateLimit:   config.RateLimitConfig{Enable: true, MaxPerSecond: 1000, ExemptAuthed: true},
	}
}

func newTestApp(t *testing.T, cfg *config.AppConfig, d *fakeDeleter) *App {
	t.Helper()
	a, err := build(zap.NewNop(), cfg, d, "demo", nil)
	require.NoError(t, err)
	return a
}

func do(a *App, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func TestRoutes_MountedAtRootAndPrefix(t *testing.T) {
	d := &fakeDeleter{failOn: map[string]bool{"b": true}}
	a := newTestApp(t, testConfig(), d)

	for _, path := range []string{"/delete-by-tokens", "/api/v1/cloudinary/delete-by-tokens"} {
		w := do(a, http.MethodPost, path, `{"delete_tokens":["a","b"]}`, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `{
			"ok": true,
			"deleted": [{"token":"a","result":{"result":"ok"}}],
			"failed": [{"token":"b","error":"Invalid token"}]
		}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	}
	assert.Equal(t, []string{"a", "b", "a", "b"}, d.tokens)
}

func TestRoutes_TokenRetriesStay200WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := pkgredis.Connect("redis://" + mr.Addr())
	require.NoError(t, err)

	d := &fakeDeleter{failOn: map[string]bool{"b": true}}
	a, err := build(zap.NewNop(), testConfig(), d, "demo", rc)
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)

	for i := 0; i < 2; i++ {
		w := do(a, http.MethodPost, "/delete-by-tokens", `{"delete_tokens":["b"]}`, nil)
		require.Equal(t, http.StatusOK, w.Code, "attempt %d", i+1)
		assert.JSONEq(t, `{"ok":true,"deleted":[],"failed":[{"token":"b","error":"Invalid token"}]}`, w.Body.String())
	}
	assert.Equal(t, []string{"b", "b"}, d.tokens)

	w := do(a, http.MethodPost, "/delete-by-public-ids", `{"public_ids":["x"]}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(a, http.MethodPost, "/delete-by-public-ids", `{"public_ids":["x"]}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, d.batches)

	w = do(a, http.MethodGet, "/health", "", nil)
	assert.Contains(t, w.Body.String(), `"redis":"up"`)
}

func TestRoutes_PublicIDFailureDetail(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeDeleter{failOn: map[string]bool{"x": true}})

	w := do(a, http.MethodPost, "/api/v1/cloudinary/delete-by-public-ids", `{"public_ids":["x"]}`, nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Cloudinary delete failed: boom"}`, w.Body.String())
}

func TestRoutes_PrefixDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RoutePrefix = ""
	a := newTestApp(t, cfg, &fakeDeleter{})

	w := do(a, http.MethodPost, "/api/v1/cloudinary/delete-by-tokens", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_NotFoundAndMethodNotAllowed(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeDeleter{})

	w := do(a, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":404`)

	w = do(a, http.MethodGet, "/delete-by-tokens", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeDeleter{})

	w := do(a, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "demo", body["cloud_name"])
	assert.NotContains(t, body, "redis")
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeDeleter{})
	do(a, http.MethodPost, "/delete-by-tokens", `{"delete_tokens":["a"]}`, nil)

	w := do(a, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "asset_deletions_total")
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAuthEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "top-secret"
	d := &fakeDeleter{}
	a := newTestApp(t, cfg, d)

	w := do(a, http.MethodPost, "/delete-by-tokens", `{"delete_tokens":["a"]}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, d.tokens)

	tokens, err := jwt.New("top-secret")
	require.NoError(t, err)
	token, err := tokens.Sign("ops", time.Minute)
	require.NoError(t, err)

	w = do(a, http.MethodPost, "/delete-by-tokens", `{"delete_tokens":["a"]}`, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a"}, d.tokens)

	w = do(a, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitRejectsBurst(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxPerSecond = 1
	a := newTestApp(t, cfg, &fakeDeleter{})

	limited := false
	for i := 0; i < 5 && !limited; i++ {
		w := do(a, http.MethodPost, "/delete-by-tokens", `{}`, nil)
		limited = w.Code == http.StatusTooManyRequests
	}
	assert.True(t, limited)
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"*.example.com"}
	a := newTestApp(t, cfg, &fakeDeleter{})

	w := do(a, http.MethodOptions, "/delete-by-tokens", "", map[string]string{
		"Origin":                        "https://admin.example.com",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(a, http.MethodOptions, "/delete-by-tokens", "", map[string]string{
		"Origin":                        "https://evil.test",
		"Access-Control-Request-Method": "POST",
	})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMatchOriginPattern(t *testing.T) {
	assert.True(t, matchOriginPattern("example.com", extractOriginHost("https://Example.com")))
	assert.True(t, matchOriginPattern("*.example.com", "cdn.example.com"))
	assert.False(t, matchOriginPattern("*.example.com", "example.org"))
	assert.True(t, matchOriginPattern("localhost:*", "localhost:5173"))
	assert.False(t, matchOriginPattern("localhost:*", "localhost.evil.test"))
}

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "42s", humanizeDuration(42*time.Second+300*time.Millisecond))
	assert.Equal(t, "5m0s", humanizeDuration(5*time.Minute+10*time.Second))
	assert.Equal(t, "3h0m0s", humanizeDuration(3*time.Hour+59*time.Minute))
}
