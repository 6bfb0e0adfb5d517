// Package cache stores encoded evaluation results keyed by their inputs.
// Evaluation is deterministic, so a hit is exactly what a fresh run returns.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/seo-optimizer/content-quality/analyzer"
	"github.com/seo-optimizer/content-quality/config"
	"github.com/seo-optimizer/content-quality/logging"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Store is a byte-oriented result cache. Get reports a miss with ok == false
// and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Key derives the cache key for one evaluation: an md5 digest over the
// document, the keyword list and the effective configuration.
func Key(document string, keywords []string, cfg analyzer.Config) string {
	payload, _ := json.Marshal(struct {
		Keywords []string        `json:"k"`
		Config   analyzer.Config `json:"c"`
	}{keywords, cfg})

	h := md5.New()
	h.Write(payload)
	h.Write([]byte{0})
	h.Write([]byte(document))
	return hex.EncodeToString(h.Sum(nil))
}

// New builds the store selected by cfg.Backend. The "none" backend returns a
// Nop store.
func New(cfg config.CacheConfig, logger logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	switch strings.ToLower(cfg.Backend) {
	case config.CacheMemory, "":
		return NewMemoryStore(cfg.TTL, cfg.MaxEntries, cfg.CleanupInterval), nil
	case config.CacheRedis:
		store, err := NewRedisStore(RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       cfg.TTL,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Using Redis result cache", logging.String("addr", cfg.RedisAddr))
		return store, nil
	case config.CacheNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Close() error                                      { return nil }

// Typed wraps a Store with evaluation encoding.
type Typed struct {
	store Store
}

// NewTyped wraps store.
func NewTyped(store Store) *Typed {
	return &Typed{store: store}
}

// Lookup returns the cached evaluation for key, if any.
func (t *Typed) Lookup(ctx context.Context, key string) (*analyzer.Evaluation, bool, error) {
	data, ok, err := t.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var ev analyzer.Evaluation
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, false, fmt.Errorf("decode cached evaluation: %w", err)
	}
	return &ev, true, nil
}

// Save stores ev under key.
func (t *Typed) Save(ctx context.Context, key string, ev *analyzer.Evaluation) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	return t.store.Set(ctx, key, data)
}

// Close closes the underlying store.
func (t *Typed) Close() error {
	return t.store.Close()
}
