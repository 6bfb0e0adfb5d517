package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/content-quality/logging"
)

// ErrorHandler recovers from panics in later handlers, logs the stack and
// answers 500.
func ErrorHandler(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					logging.Any("panic", err),
					logging.String("path", c.Request.URL.Path),
					logging.String("request_id", c.GetString(RequestIDKey)),
					logging.String("stack", string(debug.Stack())),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "An unexpected error occurred",
				})
			}
		}()

		c.Next()
	}
}
