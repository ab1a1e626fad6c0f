package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docgateway-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		fileName, _ := c.Get("fileName")
		uploadID, _ := c.Get("uploadId")
		stage := ""
		if raw, ok := c.Get("stage"); ok {
			if s, ok := raw.(string); ok {
				stage = s
			}
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":  reqID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"stage":       stage,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"file_name":   fileName,
			"upload_id":   uploadID,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
