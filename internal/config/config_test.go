package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.HTTPPort)
	assert.Equal(t, "/api/1.0", cfg.APIPrefix)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 500*time.Millisecond, cfg.SlowQueryThreshold())
	assert.InDelta(t, 10.0, cfg.RateLimit().RPS, 1e-9)
	assert.Equal(t, 20, cfg.RateLimit().Burst)
	assert.False(t, cfg.Pprof().Enabled)
	assert.Equal(t, []string{"127.0.0.0/8", "::1/128"}, cfg.Pprof().AllowedCIDRs)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"ENVIRONMENT":     "production",
		"JWT_SECRET":      "s3cret",
		"CATALOG_STORE":   "memory",
		"STORAGE_BACKEND": "redis",
		"REDIS_PORT":      "6380",
		"KAFKA_ENABLED":   "true",
		"KAFKA_BROKERS":   "k1:9092,k2:9092",
		"API_PREFIX":      "/shop",
	})
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "localhost:6380", cfg.Redis().Addr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "/shop", cfg.APIPrefix)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		wantErr string
	}{
		{"port out of range", map[string]string{"CATALOG_HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"prefix without slash", map[string]string{"API_PREFIX": "api"}, "API_PREFIX"},
		{"prefix trailing slash", map[string]string{"API_PREFIX": "/api/"}, "API_PREFIX"},
		{"unknown store", map[string]string{"CATALOG_STORE": "mysql"}, "CATALOG_STORE"},
		{"unknown storage", map[string]string{"STORAGE_BACKEND": "s3"}, "STORAGE_BACKEND"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "1.5"}, "OTEL_SAMPLE_RATE"},
		{"upload limit", map[string]string{"MAX_UPLOAD_BYTES": "0"}, "MAX_UPLOAD_BYTES"},
		{"secret outside development", map[string]string{"ENVIRONMENT": "production"}, "JWT_SECRET"},
		{"negative rate", map[string]string{"RATE_LIMIT_RPS": "-1"}, "RATE_LIMIT_RPS"},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}, "RATE_LIMIT_BURST"},
		{"pprof bad cidr", map[string]string{"PPROF_ENABLED": "true", "PPROF_ALLOWED_CIDRS": "10.0.0.0/8,localhost"}, "PPROF_ALLOWED_CIDRS"},
		{"unparseable", map[string]string{"REDIS_DB": "zero"}, "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.environ)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Postgres(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"POSTGRES_HOST": "db", "CATALOG_DB_NAME": "shop"})
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "postgres://mayocat:mayocat@db:5432/shop?sslmode=disable", pg.DSN())
	assert.Equal(t, time.Hour, pg.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, pg.MaxConnIdleTime)
}

func TestConfig_Tracing(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"OTEL_ENABLED": "true", "OTEL_SAMPLE_RATE": "0.25"})
	require.NoError(t, err)

	tc := cfg.Tracing("catalog-service", "1.2.3")
	assert.True(t, tc.Enabled)
	assert.Equal(t, "catalog-service", tc.ServiceName)
	assert.InDelta(t, 0.25, tc.SampleRate, 1e-9)
}

func TestConfig_RateLimitDisabled(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"RATE_LIMIT_RPS": "0", "RATE_LIMIT_BURST": "0"})
	require.NoError(t, err)
	assert.Zero(t, cfg.RateLimit().RPS)
}
