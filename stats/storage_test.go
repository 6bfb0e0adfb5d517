package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir, nil)
	require.NoError(t, err)

	t.Run("Record", func(t *testing.T) {
		storage.RecordEvaluation("good")
		storage.RecordEvaluation("good")
		storage.RecordEvaluation("poor")
		storage.RecordFailure()
		storage.RecordCacheLookup(true)
		storage.RecordCacheLookup(false)
		storage.RecordCacheLookup(false)

		stats := storage.GetCurrentStats()
		assert.Equal(t, 3, stats.Evaluations)
		assert.Equal(t, map[string]int{"good": 2, "poor": 1}, stats.Categories)
		assert.Equal(t, 1, stats.Failures)
		assert.Equal(t, 1, stats.CacheHits)
		assert.Equal(t, 2, stats.CacheMisses)
		assert.False(t, stats.LastUpdated.IsZero())
	})

	t.Run("Returned stats are copies", func(t *testing.T) {
		stats := storage.GetCurrentStats()
		stats.Categories["good"] = 100

		assert.Equal(t, 2, storage.GetCurrentStats().Categories["good"])
	})

	t.Run("Persistence", func(t *testing.T) {
		require.NoError(t, storage.Shutdown())
		require.NoError(t, storage.Shutdown(), "second shutdown is a no-op")

		storage2, err := NewStorage(tempDir, nil)
		require.NoError(t, err)
		defer storage2.Shutdown()

		stats := storage2.GetCurrentStats()
		assert.Equal(t, 3, stats.Evaluations)
		assert.Equal(t, 2, stats.Categories["good"])
	})
}

func TestStorage_Months(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), nil)
	require.NoError(t, err)
	defer storage.Shutdown()

	for _, month := range []time.Month{time.January, time.February, time.March, time.April} {
		at := time.Date(2026, month, 15, 12, 0, 0, 0, time.UTC)
		storage.now = func() time.Time { return at }
		storage.RecordEvaluation("fair")
	}

	t.Run("GetAllMonths", func(t *testing.T) {
		assert.Equal(t, []string{"2026-04", "2026-03", "2026-02", "2026-01"}, storage.GetAllMonths())
	})

	t.Run("GetMonthlyStats", func(t *testing.T) {
		stats, ok := storage.GetMonthlyStats("2026-02")
		require.True(t, ok)
		assert.Equal(t, 1, stats.Evaluations)

		_, ok = storage.GetMonthlyStats("2025-12")
		assert.False(t, ok)
	})

	t.Run("Cleanup", func(t *testing.T) {
		storage.Cleanup(2)
		assert.Equal(t, []string{"2026-04", "2026-03"}, storage.GetAllMonths())

		storage.Cleanup(5)
		assert.Len(t, storage.GetAllMonths(), 2)
	})
}
