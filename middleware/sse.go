package middleware

import (
	"github.com/gin-gonic/gin"
)

// SSEHeaders sets the response headers for a server-sent-events stream.
func SSEHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		c.Next()
	}
}
