package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/advocates/internal/metrics"
)

// Metrics returns a gin middleware that records request counts and latency
// labeled by matched route, keeping label cardinality bounded. A nil m
// records nothing.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
