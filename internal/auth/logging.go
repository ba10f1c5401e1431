package auth

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogger logs one line per request with a request id for
// tracing. Responses at 400 and above log at error level.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		level := slog.LevelInfo
		if c.Writer.Status() >= 400 {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request",
			"requestId", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", latency,
		)
	}
}
