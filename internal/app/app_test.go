package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidsinhalf/mayocat-shop/internal/auth"
	"github.com/kidsinhalf/mayocat-shop/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newMemoryApp(t *testing.T, extra map[string]string) (*App, *config.Config) {
	t.Helper()
	environ := map[string]string{
		"CATALOG_STORE":  "memory",
		"JWT_SECRET":     "app-test-secret",
		"DEFAULT_TENANT": "acme",
	}
	for k, v := range extra {
		environ[k] = v
	}
	cfg, err := config.LoadFrom(environ)
	require.NoError(t, err)

	a, err := NewApp(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(a.closeAll)
	return a, cfg
}

func TestNewApp_MemoryStoreServesCatalog(t *testing.T) {
	a, cfg := newMemoryApp(t, nil)

	token, err := auth.NewJWTManager(cfg.JWTSecret, time.Minute).GenerateAccessToken("u-1", auth.RoleAdmin, "acme")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/1.0/product/", strings.NewReader(`{"title":"Teapot"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/1.0/product/teapot", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/api/1.0/product/teapot", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewApp_RedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	a, _ := newMemoryApp(t, map[string]string{
		"STORAGE_BACKEND": "redis",
		"REDIS_HOST":      mr.Host(),
		"REDIS_PORT":      mr.Port(),
	})

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis"`)

	mr.Close()
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	cfg, err := config.LoadFrom(map[string]string{
		"CATALOG_STORE":   "memory",
		"STORAGE_BACKEND": "redis",
		"REDIS_HOST":      host,
		"REDIS_PORT":      port,
	})
	require.NoError(t, err)

	_, err = NewApp(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestNewApp_DevelopmentSecretFallback(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{"CATALOG_STORE": "memory"})
	require.NoError(t, err)
	require.Empty(t, cfg.JWTSecret)

	a, err := NewApp(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(a.closeAll)

	token, err := auth.NewJWTManager(DevelopmentJWTSecret, time.Minute).GenerateAccessToken("u-1", auth.RoleCustomer, cfg.DefaultTenant)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/1.0/product/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
