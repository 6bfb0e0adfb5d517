package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/seo-optimizer/content-quality/logging"
)

const (
	monthLayout      = "2006-01"
	fileName         = "usage.json"
	flushInterval    = 5 * time.Minute
	minWriteInterval = time.Minute
)

// MonthlyStats is the usage of one calendar month.
type MonthlyStats struct {
	Evaluations int            `json:"evaluations"`
	Categories  map[string]int `json:"categories"`
	Failures    int            `json:"failures"`
	CacheHits   int            `json:"cache_hits"`
	CacheMisses int            `json:"cache_misses"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Storage keeps monthly usage counters and persists them to a JSON file.
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	logger      logging.Logger
	now         func() time.Time
}

// NewStorage loads any existing counters from dataDir and starts the
// background writer. Call Shutdown to flush and stop it.
func NewStorage(dataDir string, logger logging.Logger) (*Storage, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, fileName),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		logger:      logger,
		now:         time.Now,
	}

	if err := s.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load usage stats: %w", err)
	}

	go s.backgroundWriter()
	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return json.Unmarshal(data, &s.stats)
}

// save writes to a temporary file and renames it over the target.
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal usage stats: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("rename temporary file: %w", err)
	}
	return nil
}

func (s *Storage) backgroundWriter() {
	defer close(s.stopped)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
		case <-ticker.C:
		case <-s.done:
			return
		}
		if err := s.save(); err != nil {
			s.logger.Warn("Failed to persist usage stats", logging.Error(err))
		}
	}
}

// Flush requests an asynchronous write.
func (s *Storage) Flush() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

// Shutdown stops the background writer and writes the counters one last time.
// It is safe to call more than once.
func (s *Storage) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
		err = s.save()
	})
	return err
}

func (s *Storage) currentMonth() string {
	return s.now().Format(monthLayout)
}

func (s *Storage) update(fn func(*MonthlyStats)) {
	month := s.currentMonth()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{Categories: make(map[string]int)}
		s.stats[month] = stats
	}
	if stats.Categories == nil {
		stats.Categories = make(map[string]int)
	}
	fn(stats)
	stats.LastUpdated = s.now()

	if s.now().Sub(s.lastWrite) > minWriteInterval {
		s.Flush()
		s.lastWrite = s.now()
	}
}

// RecordEvaluation counts a completed evaluation and its quality category.
func (s *Storage) RecordEvaluation(category string) {
	s.update(func(m *MonthlyStats) {
		m.Evaluations++
		if category != "" {
			m.Categories[category]++
		}
	})
}

// RecordFailure counts an evaluation that returned an error.
func (s *Storage) RecordFailure() {
	s.update(func(m *MonthlyStats) { m.Failures++ })
}

// RecordCacheLookup counts a result cache hit or miss.
func (s *Storage) RecordCacheLookup(hit bool) {
	s.update(func(m *MonthlyStats) {
		if hit {
			m.CacheHits++
		} else {
			m.CacheMisses++
		}
	})
}

// GetCurrentStats returns a copy of the current month's counters.
func (s *Storage) GetCurrentStats() MonthlyStats {
	stats, _ := s.GetMonthlyStats(s.currentMonth())
	return stats
}

// GetMonthlyStats returns a copy of the counters for yearMonth ("YYYY-MM").
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats, exists := s.stats[yearMonth]
	if !exists {
		return MonthlyStats{Categories: map[string]int{}}, false
	}
	out := *stats
	out.Categories = make(map[string]int, len(stats.Categories))
	for k, v := range stats.Categories {
		out.Categories[k] = v
	}
	return out, true
}

// GetAllMonths returns every month with counters, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Cleanup keeps the newest retainMonths months and drops the rest.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}
	months := s.GetAllMonths()
	if len(months) <= retainMonths {
		return
	}

	s.mutex.Lock()
	for _, month := range months[retainMonths:] {
		delete(s.stats, month)
	}
	s.mutex.Unlock()

	s.Flush()
	s.logger.Info("Pruned usage stats",
		logging.Int("retained", retainMonths),
		logging.Strings("removed", months[retainMonths:]),
	)
}
