package logger

import (
	"os"
	"runtime"
	"strings"

	"github.com/gin-gonic/gin"
)

// LogHTTPError logs a request failure with its HTTP context: request id,
// method, path, client IP, and the status about to be written. Client errors
// (4xx) log at warn, server errors at error. Outside production a stack trace
// is attached to server errors.
func LogHTTPError(c *gin.Context, err error, errType string, status int) {
	log := GetLogger()

	kv := []interface{}{
		"error", err,
		"error_type", errType,
		"status", status,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
	}
	if requestID := c.GetString("request_id"); requestID != "" {
		kv = append(kv, "request_id", requestID)
	}

	if status < 500 {
		log.Warnw("Request failed", kv...)
		return
	}

	if os.Getenv("ENVIRONMENT") != "production" {
		kv = append(kv, "stack_trace", stackTrace(3))
	}
	log.Errorw("Request failed", kv...)
}

// stackTrace renders the calling goroutine's stack, skipping the given number
// of frames (this function and the logging plumbing above it).
func stackTrace(skip int) string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)

	lines := strings.Split(string(buf[:n]), "\n")
	// Each frame is two lines after the goroutine header.
	drop := skip * 2
	if len(lines) <= drop+1 {
		return string(buf[:n])
	}
	return lines[0] + "\n" + strings.Join(lines[drop+1:], "\n")
}
