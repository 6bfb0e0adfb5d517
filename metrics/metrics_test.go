package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/content-quality/analyzer"
)

func TestObserveEvaluation(t *testing.T) {
	m := New()
	ev := &analyzer.Evaluation{OverallScore: 72, Category: analyzer.CategoryGood}
	ev.SEO.Score = 80

	m.ObserveEvaluation(ev, "content", 3*time.Millisecond)
	m.ObserveEvaluation(ev, "url", time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("good")), 0)
	assert.Equal(t, 4, testutil.CollectAndCount(m.DimensionScore))
	assert.Equal(t, 2, testutil.CollectAndCount(m.EvaluationDuration))
}

func TestCounters(t *testing.T) {
	m := New()

	m.RecordError("invalid_config")
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.ObserveHTTP(http.MethodPost, "/api/evaluate", http.StatusOK, 10*time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.EvaluationErrors.WithLabelValues("invalid_config")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/evaluate", "200")), 0)
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordCacheLookup(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `content_quality_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
