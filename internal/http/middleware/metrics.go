package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/stampcard-backend/internal/observability"
)

// Routes whose duration says nothing about API latency: the SSE stream stays
// open for the whole session, and probes are scraped every few seconds.
var unobservedRoutes = map[string]bool{
	"/api/events":  true,
	"/healthcheck": true,
	"/api/health":  true,
}

// Metrics records per-route request counts and latency. Unmatched paths are
// folded into a single "unmatched" route so random probes cannot grow the
// label set.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if unobservedRoutes[route] {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
