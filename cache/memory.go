package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	timestamp time.Time
}

// MemoryStore is an in-process TTL cache with a size bound. When the bound is
// exceeded the oldest entries are evicted first.
type MemoryStore struct {
	mutex           sync.RWMutex
	entries         map[string]entry
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	now             func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates the store and starts its periodic cleanup when
// cleanupInterval is positive.
func NewMemoryStore(ttl time.Duration, maxEntries int, cleanupInterval time.Duration) *MemoryStore {
	m := &MemoryStore{
		entries:         make(map[string]entry),
		ttl:             ttl,
		maxEntries:      maxEntries,
		cleanupInterval: cleanupInterval,
		now:             time.Now,
		done:            make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.periodicCleanup()
	}
	return m
}

func (m *MemoryStore) periodicCleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.done:
			return
		}
	}
}

func (m *MemoryStore) expired(e entry) bool {
	return m.ttl > 0 && m.now().Sub(e.timestamp) > m.ttl
}

// cleanup removes expired entries, then trims to maxEntries oldest first.
func (m *MemoryStore) cleanup() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for key, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, key)
		}
	}

	if m.maxEntries <= 0 || len(m.entries) <= m.maxEntries {
		return
	}

	type keyed struct {
		key       string
		timestamp time.Time
	}
	ordered := make([]keyed, 0, len(m.entries))
	for key, e := range m.entries {
		ordered = append(ordered, keyed{key, e.timestamp})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].timestamp.Before(ordered[j].timestamp)
	})
	for i := 0; i < len(ordered)-m.maxEntries; i++ {
		delete(m.entries, ordered[i].key)
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mutex.RLock()
	e, found := m.entries[key]
	m.mutex.RUnlock()

	if !found || m.expired(e) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mutex.Lock()
	m.entries[key] = entry{value: value, timestamp: m.now()}
	over := m.maxEntries > 0 && len(m.entries) > m.maxEntries
	m.mutex.Unlock()

	if over {
		m.cleanup()
	}
	return nil
}

// Len reports the number of stored entries, expired ones included until the
// next cleanup.
func (m *MemoryStore) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.entries)
}

// Clear drops every entry.
func (m *MemoryStore) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries = make(map[string]entry)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}
