package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/platform/ctxutil"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

// RequestLogger logs one line per request, leveled by status. Probe and SSE
// requests drop to debug when they succeed.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		ctx := c.Request.Context()

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := ctxutil.TraceID(ctx); id != "" {
			fields = append(fields, "trace_id", id)
		}
		if id := ctxutil.RequestID(ctx); id != "" {
			fields = append(fields, "request_id", id)
		}
		if uid := ctxutil.UserID(ctx); uid != "" {
			fields = append(fields, "user_id", uid)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case unobservedRoutes[path] && status < 400:
			log.Debug("HTTP request", fields...)
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
