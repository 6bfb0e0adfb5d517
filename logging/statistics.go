package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Statistics collects request-level statistics for the evaluation API.
type Statistics struct {
	UniqueVisitors     map[string]time.Time `json:"uniqueVisitors"`     // IP -> last visit
	EvaluationRequests int                  `json:"evaluationRequests"` // total evaluation requests
	ErrorCount         int                  `json:"errorCount"`
	Categories         map[string]int       `json:"categories"`     // quality category -> count
	PopularSources     map[string]int       `json:"popularSources"` // evaluated URL -> count
	AverageLatency     float64              `json:"averageLatency"` // milliseconds
	TotalLatency       float64              `json:"totalLatency"`
	RequestCount       int                  `json:"requestCount"`
	LastPersisted      time.Time            `json:"lastPersisted"`

	path    string
	devMode bool
	mutex   sync.RWMutex
}

// SourceCount is one entry of the popular sources ranking.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// NewStatistics creates statistics persisted at path and loads any previous
// snapshot. An empty path keeps statistics in memory only.
func NewStatistics(path string, devMode bool) (*Statistics, error) {
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		Categories:     make(map[string]int),
		PopularSources: make(map[string]int),
		LastPersisted:  time.Now(),
		path:           path,
		devMode:        devMode,
	}
	if err := s.Load(); err != nil {
		return s, err
	}
	return s, nil
}

// TrackVisitor records a visitor by IP.
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = time.Now()
}

// cleanURL reduces a URL to scheme://host/path and drops local and API addresses.
func cleanURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return ""
	}

	if strings.Contains(u.Host, "localhost") ||
		strings.Contains(u.Host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	clean := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		clean += u.Path
	}
	return strings.TrimSuffix(clean, "/")
}

// TrackEvaluation records one evaluation request. source is the evaluated URL
// (empty for inline content) and category the resulting quality band (empty on
// failure).
func (s *Statistics) TrackEvaluation(source, category string, latencyMs float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EvaluationRequests++

	if cleaned := cleanURL(source); cleaned != "" {
		s.PopularSources[cleaned]++
	}
	if category != "" {
		s.Categories[category]++
	}
	if hasError {
		s.ErrorCount++
	}

	s.TotalLatency += latencyMs
	s.RequestCount++
	s.AverageLatency = s.TotalLatency / float64(s.RequestCount)
}

// Requests returns the number of tracked evaluation requests.
func (s *Statistics) Requests() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.EvaluationRequests
}

// GetUniqueVisitorsCount returns visitors seen in the last 24 hours.
func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitors24h()
}

func (s *Statistics) uniqueVisitors24h() int {
	count := 0
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

// GetPopularSources returns the n most evaluated sources, most frequent first.
func (s *Statistics) GetPopularSources(n int) []SourceCount {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.popularSources(n)
}

func (s *Statistics) popularSources(n int) []SourceCount {
	ranked := make([]SourceCount, 0, len(s.PopularSources))
	for source, count := range s.PopularSources {
		ranked = append(ranked, SourceCount{Source: source, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Source < ranked[j].Source
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// GetErrorRate returns the error rate as a percentage.
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRate()
}

func (s *Statistics) errorRate() float64 {
	if s.EvaluationRequests == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.EvaluationRequests) * 100
}

// Save persists the statistics to the configured file.
func (s *Statistics) Save() error {
	if s.path == "" {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = time.Now()

	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("could not create statistics file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(s); err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}
	return nil
}

// Load reads previously saved statistics. A missing file is not an error.
func (s *Statistics) Load() error {
	if s.path == "" {
		return nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}
	defer file.Close()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.NewDecoder(file).Decode(s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.Categories == nil {
		s.Categories = make(map[string]int)
	}
	if s.PopularSources == nil {
		s.PopularSources = make(map[string]int)
	}
	return nil
}

// GetStatistics returns a summary. Popular sources and the category breakdown
// are only included in development mode.
func (s *Statistics) GetStatistics() map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	summary := map[string]any{
		"uniqueVisitors24h": s.uniqueVisitors24h(),
		"totalRequests":     s.EvaluationRequests,
		"errorRate":         s.errorRate(),
		"averageLatency":    s.AverageLatency,
	}
	if !s.devMode {
		return summary
	}

	categories := make(map[string]int, len(s.Categories))
	for k, v := range s.Categories {
		categories[k] = v
	}
	summary["categories"] = categories
	summary["popularSources"] = s.popularSources(5)
	return summary
}
