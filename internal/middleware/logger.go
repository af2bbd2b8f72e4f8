package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger writes one line per request through zap.
func Logger(sugar *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			sugar.Errorw("request", fields...)
		case len(c.Errors) > 0:
			sugar.Warnw("request", append(fields, "errors", c.Errors.String())...)
		default:
			sugar.Debugw("request", fields...)
		}
	}
}
