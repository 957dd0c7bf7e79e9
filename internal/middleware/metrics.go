package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics observes every request under its route template. Requests that match no
// route share one label so raw paths never become label values.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		skipped[route] = struct{}{}
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skipped[route]; ok || metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
