package middleware

import (
	"time"

	"clinic_backend/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request latency per matched route.
func Metrics(m *metrics.ClinicMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}
