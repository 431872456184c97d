// Package handlers contains the Gin HTTP handlers for the public forms and
// the admin dashboard API.
package handlers

import (
	"regexp"

	apperrors "github.com/AIStudyPlans/scheduled-backend/errors"
	"github.com/gin-gonic/gin"
)

// emailRegex mirrors the marketing site's client-side check: something before
// the @, something after, and a dot in the domain.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// bindJSONOrError binds the request body into obj, attaching a validation
// error and returning false on failure.
func bindJSONOrError(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return false
	}
	return true
}
