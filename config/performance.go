package config

import (
	"time"

	"talktrack-backend/logging"
	"talktrack-backend/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const slowRequestThreshold = 200 * time.Millisecond

// PerformanceLogger logs every request with its latency and records it in m.
func PerformanceLogger(logger *logging.Logger, m *metrics.Metrics) gin.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("requestId", reqID)
		c.Header("X-Request-ID", reqID)

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), latency.Seconds())

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", latency.Milliseconds(),
			"request_id", reqID,
		}
		if latency > slowRequestThreshold {
			logger.Warn("slow request", attrs...)
			return
		}
		logger.Info("request completed", attrs...)
	}
}
