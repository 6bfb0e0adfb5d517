package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/content-quality/logging"
	"github.com/seo-optimizer/content-quality/metrics"
)

// Context keys set by evaluation handlers and read by Stats.
const (
	EvaluationSourceKey   = "evaluation_source"
	EvaluationCategoryKey = "evaluation_category"
)

const saveEvery = 100

// Stats tracks visitors and, for requests marked by an evaluation handler,
// the evaluation outcome. Every request is also observed in metrics when m is
// not nil.
func Stats(stats *logging.Statistics, m *metrics.Metrics, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		stats.TrackVisitor(c.ClientIP())

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()

		if m != nil {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(c.Request.Method, route, status, elapsed)
		}

		if _, tracked := c.Get(EvaluationSourceKey); !tracked {
			return
		}
		stats.TrackEvaluation(
			c.GetString(EvaluationSourceKey),
			c.GetString(EvaluationCategoryKey),
			float64(elapsed.Milliseconds()),
			status >= 400,
		)

		if stats.Requests()%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("Failed to save statistics", logging.Error(err))
				}
			}()
		}
	}
}
