// Package metrics exposes Prometheus collectors for the evaluation service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seo-optimizer/content-quality/analyzer"
)

const namespace = "content_quality"

// Metrics holds every collector. Each instance owns its registry so tests can
// create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	EvaluationsTotal    *prometheus.CounterVec
	EvaluationErrors    *prometheus.CounterVec
	EvaluationDuration  *prometheus.HistogramVec
	DimensionScore      *prometheus.HistogramVec
	OverallScore        prometheus.Histogram
	RecommendationCount prometheus.Histogram

	CacheLookups *prometheus.CounterVec
	RateLimited  prometheus.Counter
	BatchSize    prometheus.Histogram

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}
	m.initEvaluationMetrics(factory)
	m.initServiceMetrics(factory)
	return m
}

func (m *Metrics) initEvaluationMetrics(factory promauto.Factory) {
	scoreBuckets := prometheus.LinearBuckets(10, 10, 10)

	m.EvaluationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Completed evaluations by quality category",
		},
		[]string{"category"},
	)
	m.EvaluationErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Failed evaluations by reason",
		},
		[]string{"reason"},
	)
	m.EvaluationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating one document",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"source"},
	)
	m.DimensionScore = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dimension_score",
			Help:      "Category scores by dimension",
			Buckets:   scoreBuckets,
		},
		[]string{"dimension"},
	)
	m.OverallScore = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "overall_score",
		Help:      "Weighted overall scores",
		Buckets:   scoreBuckets,
	})
	m.RecommendationCount = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommendations",
		Help:      "Recommendations emitted per evaluation",
		Buckets:   prometheus.LinearBuckets(0, 2, 10),
	})
}

func (m *Metrics) initServiceMetrics(factory promauto.Factory) {
	m.CacheLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome",
		},
		[]string{"result"},
	)
	m.RateLimited = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})
	m.BatchSize = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_size",
		Help:      "Documents per batch request",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
	})
	m.HTTPRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

// ObserveEvaluation records a successful evaluation.
func (m *Metrics) ObserveEvaluation(ev *analyzer.Evaluation, source string, elapsed time.Duration) {
	m.EvaluationsTotal.WithLabelValues(string(ev.Category)).Inc()
	m.EvaluationDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.OverallScore.Observe(float64(ev.OverallScore))
	m.RecommendationCount.Observe(float64(len(ev.Recommendations)))
	for _, d := range []analyzer.Dimension{
		analyzer.DimensionSEO,
		analyzer.DimensionReadability,
		analyzer.DimensionContent,
		analyzer.DimensionTechnical,
	} {
		m.DimensionScore.WithLabelValues(string(d)).Observe(float64(ev.Score(d)))
	}
}

// RecordError counts a failed evaluation.
func (m *Metrics) RecordError(reason string) {
	m.EvaluationErrors.WithLabelValues(reason).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveHTTP records one finished HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
