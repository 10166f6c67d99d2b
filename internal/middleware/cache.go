package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids clients and proxies from caching the response. Exam papers
// and countdowns are per-attempt and change with every save.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
