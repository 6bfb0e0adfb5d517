package config

import (
	"fmt"

	"github.com/seo-optimizer/content-quality/logging"
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Validate checks every section. Evaluation settings are checked after their
// defaults are applied, the same way each evaluation call sees them.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 1 and 65535")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return invalid("server.mode", "must be one of: debug, release, test")
	}
	if c.Server.MaxDocumentBytes <= 0 {
		return invalid("server.max_document_bytes", "must be positive")
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return invalid("logging.level", "must be one of: debug, info, warn, error, fatal")
	}

	switch c.Cache.Backend {
	case CacheNone:
	case CacheMemory, CacheRedis:
		if c.Cache.TTL <= 0 {
			return invalid("cache.ttl", "must be positive")
		}
		if c.Cache.Backend == CacheMemory && c.Cache.MaxEntries < 1 {
			return invalid("cache.max_entries", "must be at least 1")
		}
		if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
			return invalid("cache.redis_addr", "is required for the redis backend")
		}
	default:
		return invalid("cache.backend", "must be one of: memory, redis, none")
	}

	if c.RateLimit.RPS <= 0 {
		return invalid("rate_limit.rps", "must be positive")
	}
	if c.RateLimit.Burst < 1 {
		return invalid("rate_limit.burst", "must be at least 1")
	}

	if c.Stats.DataDir == "" {
		return invalid("stats.data_dir", "is required")
	}
	if c.Fetch.Timeout <= 0 {
		return invalid("fetch.timeout", "must be positive")
	}
	if c.Batch.Concurrency < 1 {
		return invalid("batch.concurrency", "must be at least 1")
	}
	if c.Batch.MaxDocuments < 1 {
		return invalid("batch.max_documents", "must be at least 1")
	}

	eval := c.Evaluation.WithDefaults()
	if err := eval.Validate(); err != nil {
		return fmt.Errorf("evaluation: %w", err)
	}
	return nil
}
