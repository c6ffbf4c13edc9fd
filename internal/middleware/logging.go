package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// routeOf returns the matched route template, so ids do not explode the metric keys
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// StructuredLoggingMiddleware logs every request with its route, status and
// latency, and records it in metrics when metrics is not nil
func StructuredLoggingMiddleware(logger *slog.Logger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		logger.Debug("request started",
			"method", method,
			"path", path,
			"query_params", c.Request.URL.Query().Encode(),
			"remote_addr", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		route := routeOf(c)

		if metrics != nil {
			metrics.Record(method, route, statusCode, latency)
		}

		level := slog.LevelInfo
		switch {
		case statusCode >= 500:
			level = slog.LevelError
		case statusCode >= 400:
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "request completed",
			"method", method,
			"route", route,
			"path", path,
			"status_code", statusCode,
			"latency_ms", latency.Milliseconds(),
			"bytes_written", c.Writer.Size(),
		)

		for _, err := range c.Errors {
			logger.Error("request error",
				"method", method,
				"route", route,
				"error", err.Error(),
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}
