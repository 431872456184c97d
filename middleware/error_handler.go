// Package middleware provides Gin middleware: error rendering, request ids,
// CORS, admin capability checks, rate limiting, and SSE headers.
package middleware

import (
	"strconv"

	"github.com/AIStudyPlans/scheduled-backend/errors"
	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders errors attached to the gin context as JSON envelopes.
// Handlers report failures with c.Error(...) and abort; this middleware picks
// the last one up after the chain finishes.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if appError, ok := err.(*errors.AppError); ok {
			statusCode := appError.GetHTTPStatus()
			logger.LogHTTPError(c, appError, string(appError.Type), statusCode)

			response := gin.H{
				"type":    string(appError.Type),
				"message": appError.Message,
				"code":    strconv.Itoa(statusCode),
			}
			// Detail can carry driver internals; only surface it for errors the
			// caller can act on, or in debug mode.
			if appError.Detail != "" && (gin.IsDebugging() ||
				appError.Type == errors.ValidationError ||
				appError.Type == errors.NotFoundError ||
				appError.Type == errors.ConflictError ||
				appError.Type == errors.RateLimitError) {
				response["details"] = appError.Detail
			}

			c.JSON(statusCode, response)
			return
		}

		if c.Errors.Last().Type == gin.ErrorTypeBind {
			logger.LogHTTPError(c, err, string(errors.ValidationError), 400)

			response := gin.H{
				"type":    string(errors.ValidationError),
				"message": "Failed to bind request",
				"code":    "400",
			}
			if gin.IsDebugging() {
				response["details"] = err.Error()
			}
			c.JSON(400, response)
			return
		}

		logger.LogHTTPError(c, err, string(errors.ServerError), 500)

		response := gin.H{
			"type":    string(errors.ServerError),
			"message": "Internal Server Error",
			"code":    "500",
		}
		if gin.IsDebugging() {
			response["details"] = err.Error()
		}
		c.JSON(500, response)
	}
}
