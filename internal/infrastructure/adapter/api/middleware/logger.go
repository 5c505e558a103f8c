package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// Logger middleware logs incoming requests and their responses
func Logger(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		ip := c.ClientIP()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]any{
			"method":     method,
			"path":       path,
			"status":     statusCode,
			"latency_ms": latency.Milliseconds(),
			"ip":         ip,
			"errors":     c.Errors.Errors(),
		}
		// Per-request tracing detail only when the logger runs at debug
		if logger.GetLevel() <= coreport.LogLevelDebug {
			fields["request_id"] = c.GetHeader("X-Request-ID")
			fields["user_agent"] = c.Request.UserAgent()
		}
		logger.Info("Request processed", fields)
	}
}
