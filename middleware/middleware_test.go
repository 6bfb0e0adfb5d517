package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/content-quality/logging"
	"github.com/seo-optimizer/content-quality/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(logging.NewNop()))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	rec := perform(r, http.MethodGet, "/panic", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"An unexpected error occurred"}`, rec.Body.String())
}

func TestRateLimiter(t *testing.T) {
	rejected := 0
	rl := NewRateLimiter(1, 2).OnReject(func() { rejected++ })
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("Burst then reject", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)

		rec := perform(r, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.Equal(t, 1, rejected)
	})

	t.Run("Refills over time", func(t *testing.T) {
		clock = clock.Add(time.Second)
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	})

	t.Run("Clients are independent", func(t *testing.T) {
		assert.True(t, rl.Allow("10.0.0.9"))
	})

	t.Run("Cleanup", func(t *testing.T) {
		clock = clock.Add(time.Hour)
		assert.True(t, rl.Allow("10.0.0.10"))
		assert.Equal(t, 2, rl.Cleanup(time.Minute))
		assert.Equal(t, 0, rl.Cleanup(time.Minute))
	})
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	t.Run("Generated", func(t *testing.T) {
		rec := perform(r, http.MethodGet, "/", nil)
		id := rec.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, rec.Body.String())
	})

	t.Run("Propagated", func(t *testing.T) {
		rec := perform(r, http.MethodGet, "/", http.Header{RequestIDHeader: {"abc-123"}})
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestStats(t *testing.T) {
	stats, err := logging.NewStatistics("", true)
	require.NoError(t, err)
	m := metrics.New()

	r := gin.New()
	r.Use(Stats(stats, m, logging.NewNop()))
	r.POST("/api/evaluate", func(c *gin.Context) {
		c.Set(EvaluationSourceKey, "https://example.com/post")
		c.Set(EvaluationCategoryKey, "good")
		c.Status(http.StatusOK)
	})
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodPost, "/api/evaluate", nil)
	perform(r, http.MethodGet, "/api/health", nil)
	perform(r, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, 1, stats.Requests())
	assert.Equal(t, 1, stats.GetUniqueVisitorsCount())
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/evaluate", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")), 0)
}
