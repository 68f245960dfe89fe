package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/metrics"
)

// Metrics returns middleware that records request counts and latency per route template.
func Metrics(collector metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
