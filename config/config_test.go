package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/content-quality/analyzer"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("BASE_DOMAIN", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, analyzer.DefaultConfig(), cfg.Evaluation)
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("BASE_DOMAIN", "")

	path := writeFile(t, "config.yml", `
server:
  port: 9090
  dev_mode: true
cache:
  backend: redis
  redis_addr: localhost:6379
  ttl: 10m
evaluation:
  base_domain: example.com
  weights:
    seo: 0.5
  thresholds:
    excellent: 90
    good: 75
    fair: 55
    poor: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.DevMode)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "example.com", cfg.Evaluation.BaseDomain)
	assert.InDelta(t, 0.5, cfg.Evaluation.Weights.SEO, 1e-9)
	assert.InDelta(t, analyzer.DefaultWeightReadability, cfg.Evaluation.Weights.Readability, 1e-9, "omitted keys keep defaults")
	assert.Equal(t, 90, cfg.Evaluation.Thresholds.Excellent)
	assert.Equal(t, DefaultRateLimitBurst, cfg.RateLimit.Burst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yml", "server:\n  port: 9090\n")

	t.Setenv("PORT", "7070")
	t.Setenv("DEV_MODE", "yes")
	t.Setenv("CACHE_BACKEND", "none")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("RATE_LIMIT_RPS", "3.5")
	t.Setenv("MAX_DOCUMENT_BYTES", "1024")
	t.Setenv("BASE_DOMAIN", "example.org")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FETCH_ALLOW_PRIVATE_NETWORKS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Server.DevMode)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.InDelta(t, 3.5, cfg.RateLimit.RPS, 1e-9)
	assert.Equal(t, int64(1024), cfg.Server.MaxDocumentBytes)
	assert.Equal(t, "example.org", cfg.Evaluation.BaseDomain)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Fetch.AllowPrivateNetworks)
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("PORT", "")
	envPath := writeFile(t, "test.env", "BATCH_MAX_DOCUMENTS=7\n")
	t.Setenv("ENV_FILE", envPath)
	t.Cleanup(func() { os.Unsetenv("BATCH_MAX_DOCUMENTS") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Batch.MaxDocuments)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "server: [not a map")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"document size", func(c *Config) { c.Server.MaxDocumentBytes = 0 }, "server.max_document_bytes"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"cache ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"redis addr", func(c *Config) { c.Cache.Backend = CacheRedis }, "cache.redis_addr"},
		{"rate", func(c *Config) { c.RateLimit.RPS = 0 }, "rate_limit.rps"},
		{"burst", func(c *Config) { c.RateLimit.Burst = 0 }, "rate_limit.burst"},
		{"batch", func(c *Config) { c.Batch.Concurrency = 0 }, "batch.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	t.Run("disabled cache ignores ttl", func(t *testing.T) {
		cfg := Default()
		cfg.Cache.Backend = CacheNone
		cfg.Cache.TTL = 0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("evaluation section", func(t *testing.T) {
		cfg := Default()
		cfg.Evaluation.Weights.Content = -1
		assert.ErrorIs(t, cfg.Validate(), analyzer.ErrInvalidConfig)
	})
}
