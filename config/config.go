// Package config loads the service configuration from a YAML file, .env files
// and environment variables, in that order of increasing precedence.
package config

import (
	"time"

	"github.com/seo-optimizer/content-quality/analyzer"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Defaults.
const (
	DefaultPort             = 8082
	DefaultMaxDocumentBytes = 2 << 20
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultReadTimeout      = 15 * time.Second
	DefaultWriteTimeout     = 30 * time.Second

	DefaultCacheTTL             = 30 * time.Minute
	DefaultCacheMaxEntries      = 1000
	DefaultCacheCleanupInterval = 5 * time.Minute
	DefaultCacheKeyPrefix       = "contentquality:eval:"

	DefaultRateLimitRPS   = 2
	DefaultRateLimitBurst = 5

	DefaultDataDir      = "data"
	DefaultRetainMonths = 12

	DefaultFetchTimeout   = 15 * time.Second
	DefaultFetchUserAgent = "ContentQualityBot/1.0"

	DefaultBatchConcurrency = 4
	DefaultBatchMaxDocs     = 50
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Logging    LoggingConfig   `yaml:"logging"`
	Cache      CacheConfig     `yaml:"cache"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	Stats      StatsConfig     `yaml:"stats"`
	Fetch      FetchConfig     `yaml:"fetch"`
	Batch      BatchConfig     `yaml:"batch"`
	Evaluation analyzer.Config `yaml:"evaluation"`
}

type ServerConfig struct {
	Port             int           `yaml:"port" env:"PORT"`
	Mode             string        `yaml:"mode" env:"GIN_MODE"`
	DevMode          bool          `yaml:"dev_mode" env:"DEV_MODE"`
	MaxDocumentBytes int64         `yaml:"max_document_bytes" env:"MAX_DOCUMENT_BYTES"`
	ReadTimeout      time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout     time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
}

type CacheConfig struct {
	Backend         string        `yaml:"backend" env:"CACHE_BACKEND"`
	TTL             time.Duration `yaml:"ttl" env:"CACHE_TTL"`
	MaxEntries      int           `yaml:"max_entries" env:"CACHE_MAX_ENTRIES"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	RedisAddr       string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword   string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB         int           `yaml:"redis_db" env:"REDIS_DB"`
	KeyPrefix       string        `yaml:"key_prefix"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

type StatsConfig struct {
	DataDir      string `yaml:"data_dir" env:"DATA_DIR"`
	RetainMonths int    `yaml:"retain_months"`
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" env:"FETCH_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" env:"FETCH_USER_AGENT"`
	// AllowPrivateNetworks lets url evaluations reach loopback and private
	// addresses. Enable only when every API client is trusted.
	AllowPrivateNetworks bool `yaml:"allow_private_networks" env:"FETCH_ALLOW_PRIVATE_NETWORKS"`
}

type BatchConfig struct {
	Concurrency  int `yaml:"concurrency" env:"BATCH_CONCURRENCY"`
	MaxDocuments int `yaml:"max_documents" env:"BATCH_MAX_DOCUMENTS"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             DefaultPort,
			Mode:             "release",
			MaxDocumentBytes: DefaultMaxDocumentBytes,
			ReadTimeout:      DefaultReadTimeout,
			WriteTimeout:     DefaultWriteTimeout,
			ShutdownTimeout:  DefaultShutdownTimeout,
		},
		Logging: LoggingConfig{Level: "info"},
		Cache: CacheConfig{
			Backend:         CacheMemory,
			TTL:             DefaultCacheTTL,
			MaxEntries:      DefaultCacheMaxEntries,
			CleanupInterval: DefaultCacheCleanupInterval,
			KeyPrefix:       DefaultCacheKeyPrefix,
		},
		RateLimit:  RateLimitConfig{RPS: DefaultRateLimitRPS, Burst: DefaultRateLimitBurst},
		Stats:      StatsConfig{DataDir: DefaultDataDir, RetainMonths: DefaultRetainMonths},
		Fetch:      FetchConfig{Timeout: DefaultFetchTimeout, UserAgent: DefaultFetchUserAgent},
		Batch:      BatchConfig{Concurrency: DefaultBatchConcurrency, MaxDocuments: DefaultBatchMaxDocs},
		Evaluation: analyzer.DefaultConfig(),
	}
}
