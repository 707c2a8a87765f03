package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smarthealth/healthconnect-api/pkg/logger"
)

// Logger logs every request with its id, latency and status class.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}

		fields := map[string]interface{}{
			"request_id": c.GetString(ContextRequestID),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
		}

		entry := log.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error(nil, "server error")
		case status >= 400:
			entry.Warn("client error")
		default:
			entry.Info("request processed")
		}
	}
}
