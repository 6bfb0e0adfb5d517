// Package server exposes the evaluation engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/content-quality/analyzer"
	"github.com/seo-optimizer/content-quality/cache"
	"github.com/seo-optimizer/content-quality/config"
	"github.com/seo-optimizer/content-quality/fetch"
	"github.com/seo-optimizer/content-quality/logging"
	"github.com/seo-optimizer/content-quality/metrics"
	"github.com/seo-optimizer/content-quality/middleware"
	"github.com/seo-optimizer/content-quality/stats"
)

const (
	janitorInterval = 10 * time.Minute
	visitorMaxIdle  = 30 * time.Minute
)

// Deps are the collaborators a Server needs. Cache may be nil to disable
// result caching.
type Deps struct {
	Config     *config.Config
	Analyzer   *analyzer.Analyzer
	Cache      cache.Store
	Fetcher    *fetch.Fetcher
	Statistics *logging.Statistics
	Usage      *stats.Storage
	Metrics    *metrics.Metrics
	Logger     logging.Logger
}

// Server holds the router and its handlers' state.
type Server struct {
	cfg        *config.Config
	analyzer   *analyzer.Analyzer
	cache      *cache.Typed
	fetcher    *fetch.Fetcher
	statistics *logging.Statistics
	usage      *stats.Storage
	metrics    *metrics.Metrics
	limiter    *middleware.RateLimiter
	logger     logging.Logger
}

// New wires a Server from deps, filling in defaults for optional ones.
func New(deps Deps) *Server {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Analyzer == nil {
		deps.Analyzer = analyzer.New(analyzer.WithLogger(deps.Logger))
	}
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.Fetcher == nil {
		deps.Fetcher = fetch.New(fetch.Options{
			Timeout:      deps.Config.Fetch.Timeout,
			UserAgent:    deps.Config.Fetch.UserAgent,
			MaxBytes:     deps.Config.Server.MaxDocumentBytes,
			AllowPrivate: deps.Config.Fetch.AllowPrivateNetworks,
		})
	}
	if deps.Statistics == nil {
		deps.Statistics, _ = logging.NewStatistics("", deps.Config.Server.DevMode)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	s := &Server{
		cfg:        deps.Config,
		analyzer:   deps.Analyzer,
		cache:      cache.NewTyped(deps.Cache),
		fetcher:    deps.Fetcher,
		statistics: deps.Statistics,
		usage:      deps.Usage,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
	s.limiter = middleware.NewRateLimiter(deps.Config.RateLimit.RPS, deps.Config.RateLimit.Burst).
		OnReject(s.metrics.RateLimited.Inc)
	return s
}

// Router builds the gin engine with all middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler(s.logger))
	r.Use(cors())
	r.Use(middleware.Stats(s.statistics, s.metrics, s.logger))

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	api.Use(s.limiter.RateLimit())
	{
		api.GET("/health", s.health)
		api.POST("/evaluate", s.evaluate)
		api.POST("/evaluate/batch", s.evaluateBatch)
		api.GET("/statistics", s.getStatistics)
	}

	return r
}

// RunJanitor periodically forgets idle rate-limit clients and prunes old
// usage months until ctx is done.
func (s *Server) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Server) sweep() {
	if removed := s.limiter.Cleanup(visitorMaxIdle); removed > 0 {
		s.logger.Debug("Forgot idle clients", logging.Int("count", removed))
	}
	if s.usage != nil {
		s.usage.Cleanup(s.cfg.Stats.RetainMonths)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Cache")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
