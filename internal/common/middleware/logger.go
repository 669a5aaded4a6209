package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"noz-miniapp-backend/internal/common/logger"
)

// Logger logs one structured line per processed request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size()).
			Str("request_id", c.GetString(RequestIDCtxKey)).
			Msg("Request processed")
	}
}
