package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/content-quality/analyzer"
	"github.com/seo-optimizer/content-quality/cache"
	"github.com/seo-optimizer/content-quality/config"
	"github.com/seo-optimizer/content-quality/stats"
)

const article = `<html lang="en"><head>
<title>Designing resilient Go worker pools</title>
<meta name="description" content="How to size, supervise and drain Go worker pools so that batch jobs stay fast under load and shut down cleanly without losing work.">
<meta name="viewport" content="width=device-width">
</head><body>
<main><article>
<h1>Resilient Go worker pools</h1>
<h2>Introduction</h2>
<p>Worker pools bound concurrency. A worker pool keeps memory flat under load.</p>
<ul><li>Bounded queues</li><li>Graceful drain</li></ul>
<h2>Conclusion</h2>
<p>In summary, size the pool from measurements. <a href="/guides/pools">Read the pool guide</a>.</p>
<img src="pool.webp" alt="Worker pool diagram" loading="lazy">
</article></main>
</body></html>`

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	server *Server
	router *gin.Engine
	usage  *stats.Storage
}

func newFixture(t *testing.T, mutate func(*config.Config), store cache.Store) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000
	cfg.Server.MaxDocumentBytes = 8 << 10
	if mutate != nil {
		mutate(cfg)
	}

	usage, err := stats.NewStorage(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = usage.Shutdown() })

	if store == nil {
		store = cache.NewMemoryStore(time.Minute, 100, 0)
	}

	srv := New(Deps{Config: cfg, Cache: store, Usage: usage})
	return &fixture{server: srv, router: srv.Router(), usage: usage}
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec := f.do(http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEvaluate_Content(t *testing.T) {
	f := newFixture(t, nil, nil)
	body := map[string]any{"content": article, "keywords": []string{"worker pool"}}

	rec := f.do(http.MethodPost, "/api/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	var ev analyzer.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	want, err := analyzer.Evaluate(article, []string{"worker pool"}, nil)
	require.NoError(t, err)
	assert.Equal(t, want.OverallScore, ev.OverallScore)
	assert.Equal(t, want.Category, ev.Category)

	t.Run("Second call hits the cache", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/evaluate", body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

		usage := f.usage.GetCurrentStats()
		assert.Equal(t, 2, usage.Evaluations)
		assert.Equal(t, 1, usage.CacheHits)
		assert.Equal(t, 1, usage.CacheMisses)
		assert.InDelta(t, 1, testutil.ToFloat64(f.server.metrics.CacheLookups.WithLabelValues("hit")), 0)
	})

	t.Run("Partial config changes the key", func(t *testing.T) {
		body := map[string]any{
			"content":  article,
			"keywords": []string{"worker pool"},
			"config":   map[string]any{"weights": map[string]any{"seo": 1, "readability": 0, "content": 0, "technical": 0}},
		}
		rec := f.do(http.MethodPost, "/api/evaluate", body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

		var ev analyzer.Evaluation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
		assert.Equal(t, ev.SEO.Score, ev.OverallScore)
	})
}

func TestEvaluate_Formats(t *testing.T) {
	f := newFixture(t, nil, nil)
	body := map[string]any{"content": article}

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"yaml", "application/yaml", "overallScore:"},
		{"markdown", "text/markdown", "# Content Quality Report"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/evaluate?format="+tt.format, body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/evaluate?format=pdf", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEvaluate_Errors(t *testing.T) {
	f := newFixture(t, nil, nil)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"malformed JSON", `{"content":`, http.StatusBadRequest},
		{"neither content nor url", map[string]any{"keywords": []string{"go"}}, http.StatusBadRequest},
		{"both content and url", map[string]any{"content": "x", "url": "https://example.com"}, http.StatusBadRequest},
		{"whitespace content", map[string]any{"content": "   "}, http.StatusBadRequest},
		{"invalid config", map[string]any{"content": article, "config": map[string]any{"weights": map[string]any{"seo": -1}}}, http.StatusBadRequest},
		{"invalid url", map[string]any{"url": "ftp://example.com"}, http.StatusBadRequest},
		{"oversized content", map[string]any{"content": strings.Repeat("a", 9<<10)}, http.StatusRequestEntityTooLarge},
		{"oversized body", map[string]any{"content": strings.Repeat("a", 80<<10)}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/evaluate", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestEvaluate_URL(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/post":
			w.Header().Set("Content-Type", "text/html")
			page := strings.Replace(article, `href="/guides/pools"`, `href="http://`+r.Host+`/guides/pools"`, 1)
			_, _ = w.Write([]byte(page))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 16<<10)))
		default:
			http.Error(w, "gone", http.StatusGone)
		}
	}))
	defer upstream.Close()

	f := newFixture(t, func(cfg *config.Config) { cfg.Fetch.AllowPrivateNetworks = true }, nil)

	t.Run("OK", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/evaluate", map[string]any{"url": upstream.URL + "/post"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var ev analyzer.Evaluation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
		// The page host becomes the base domain, so the absolute link is internal.
		assert.Equal(t, 1, ev.SEO.Links.Internal)
		assert.Equal(t, 0, ev.SEO.Links.External)
	})

	t.Run("Upstream error", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/evaluate", map[string]any{"url": upstream.URL + "/missing"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("Too large", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/evaluate", map[string]any{"url": upstream.URL + "/big"})
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	assert.Equal(t, 2, f.usage.GetCurrentStats().Failures)

	t.Run("Private address rejected by default", func(t *testing.T) {
		guarded := newFixture(t, nil, nil)
		rec := guarded.do(http.MethodPost, "/api/evaluate", map[string]any{"url": upstream.URL + "/post"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "address not allowed")
	})
}

func TestEvaluateBatch(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.Batch.MaxDocuments = 3 }, nil)

	t.Run("Mixed results keep order", func(t *testing.T) {
		body := map[string]any{"documents": []map[string]any{
			{"id": "a", "content": article, "keywords": []string{"worker pool"}},
			{"id": "b", "content": "  "},
			{"content": strings.Repeat("a", 9<<10)},
		}}
		rec := f.do(http.MethodPost, "/api/evaluate/batch", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp batchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Results, 3)
		assert.Equal(t, 1, resp.Succeeded)
		assert.Equal(t, 2, resp.Failed)

		assert.Equal(t, "a", resp.Results[0].ID)
		assert.NotNil(t, resp.Results[0].Evaluation)
		assert.Equal(t, "b", resp.Results[1].ID)
		assert.Contains(t, resp.Results[1].Error, "empty")
		assert.Equal(t, "2", resp.Results[2].ID)
		assert.Contains(t, resp.Results[2].Error, "too large")
	})

	t.Run("Too many documents", func(t *testing.T) {
		docs := make([]map[string]any, 4)
		for i := range docs {
			docs[i] = map[string]any{"content": "<p>x</p>"}
		}
		rec := f.do(http.MethodPost, "/api/evaluate/batch", map[string]any{"documents": docs})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Empty batch", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/evaluate/batch", map[string]any{"documents": []any{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEvaluateBatch_CountedInStatistics(t *testing.T) {
	f := newFixture(t, nil, nil)
	body := map[string]any{"documents": []map[string]any{
		{"id": "a", "content": article},
		{"id": "b", "content": article},
	}}
	rec := f.do(http.MethodPost, "/api/evaluate/batch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.EqualValues(t, 1, summary["totalRequests"])
	assert.Equal(t, 2, f.usage.GetCurrentStats().Evaluations)
}

func TestStatisticsAndMetrics(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.do(http.MethodPost, "/api/evaluate", map[string]any{"content": article})

	rec := f.do(http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.EqualValues(t, 1, summary["totalRequests"])
	assert.Contains(t, summary, "usage")
	assert.Len(t, summary["months"], 1)

	rec = f.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "content_quality_evaluations_total")
	assert.Contains(t, rec.Body.String(), `route="/api/evaluate"`)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.RateLimit.RPS = 0.001
		cfg.RateLimit.Burst = 1
	}, nil)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodGet, "/api/health", nil).Code)
	assert.InDelta(t, 1, testutil.ToFloat64(f.server.metrics.RateLimited), 0)

	// Metrics are outside the rate-limited group.
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/metrics", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec := f.do(http.MethodOptions, "/api/evaluate", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := cache.NewRedisStore(cache.RedisOptions{Addr: mr.Addr(), KeyPrefix: "cq:", TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := newFixture(t, nil, store)
	body := map[string]any{"content": article}

	assert.Equal(t, "MISS", f.do(http.MethodPost, "/api/evaluate", body).Header().Get("X-Cache"))
	assert.Equal(t, "HIT", f.do(http.MethodPost, "/api/evaluate", body).Header().Get("X-Cache"))
	assert.Len(t, mr.Keys(), 1)
}

func TestSweep(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.do(http.MethodGet, "/api/health", nil)

	assert.NotPanics(t, f.server.sweep)
}
