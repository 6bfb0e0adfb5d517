package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/content-quality/analyzer"
	"github.com/seo-optimizer/content-quality/config"
)

func TestKey(t *testing.T) {
	cfg := analyzer.DefaultConfig()
	base := Key("<p>hello</p>", []string{"go"}, cfg)

	assert.Len(t, base, 32)
	assert.Equal(t, base, Key("<p>hello</p>", []string{"go"}, cfg))
	assert.NotEqual(t, base, Key("<p>hello!</p>", []string{"go"}, cfg))
	assert.NotEqual(t, base, Key("<p>hello</p>", []string{"rust"}, cfg))

	cfg.BaseDomain = "example.com"
	assert.NotEqual(t, base, Key("<p>hello</p>", []string{"go"}, cfg))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute, 2, 0)
	defer store.Close()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	t.Run("Miss", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Hit", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a", []byte("1")))
		value, ok, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("1"), value)
	})

	t.Run("Evicts oldest over capacity", func(t *testing.T) {
		clock = clock.Add(time.Second)
		require.NoError(t, store.Set(ctx, "b", []byte("2")))
		clock = clock.Add(time.Second)
		require.NoError(t, store.Set(ctx, "c", []byte("3")))

		assert.Equal(t, 2, store.Len())
		_, ok, _ := store.Get(ctx, "a")
		assert.False(t, ok)
		_, ok, _ = store.Get(ctx, "c")
		assert.True(t, ok)
	})

	t.Run("Expires", func(t *testing.T) {
		clock = clock.Add(2 * time.Minute)
		_, ok, _ := store.Get(ctx, "c")
		assert.False(t, ok)

		store.cleanup()
		assert.Equal(t, 0, store.Len())
	})

	t.Run("Close is idempotent", func(t *testing.T) {
		assert.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := NewRedisStore(RedisOptions{Addr: mr.Addr(), KeyPrefix: "test:", TTL: time.Minute})
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("payload")))
	assert.True(t, mr.Exists("test:k"))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), value)

	mr.FastForward(2 * time.Minute)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisStore_Errors(t *testing.T) {
	_, err := NewRedisStore(RedisOptions{})
	assert.ErrorIs(t, err, ErrEmptyAddress)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisStore(RedisOptions{Addr: addr})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.CacheConfig
		want    any
		wantErr error
	}{
		{"memory", config.CacheConfig{Backend: config.CacheMemory, TTL: time.Minute}, &MemoryStore{}, nil},
		{"redis", config.CacheConfig{Backend: config.CacheRedis, RedisAddr: mr.Addr()}, &RedisStore{}, nil},
		{"none", config.CacheConfig{Backend: config.CacheNone}, Nop{}, nil},
		{"unknown", config.CacheConfig{Backend: "memcached"}, nil, ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(tt.cfg, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.want, store)
		})
	}
}

func TestTyped(t *testing.T) {
	ctx := context.Background()
	typed := NewTyped(NewMemoryStore(time.Minute, 10, 0))
	defer typed.Close()

	ev, err := analyzer.Evaluate("<title>Caching evaluations for speed</title><p>Body text.</p>", []string{"caching"}, nil)
	require.NoError(t, err)

	_, ok, err := typed.Lookup(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, typed.Save(ctx, "key", ev))
	cached, ok, err := typed.Lookup(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ev.OverallScore, cached.OverallScore)
	assert.Equal(t, ev.Category, cached.Category)
	assert.Equal(t, ev.Recommendations, cached.Recommendations)
}
