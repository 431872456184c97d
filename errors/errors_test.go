package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	originalErr := fmt.Errorf("original error")
	wrappedErr := Wrap(originalErr, DatabaseError, "database operation failed")

	assert.Equal(t, DatabaseError, wrappedErr.Type)
	assert.Equal(t, "database operation failed", wrappedErr.Message)
	assert.Equal(t, originalErr.Error(), wrappedErr.Detail)
	assert.Equal(t, 500, wrappedErr.HTTPStatus)
	assert.Equal(t, originalErr, wrappedErr.Raw)
}

func TestValidationFailed(t *testing.T) {
	err := ValidationFailed("Invalid email", "format not correct")
	assert.Equal(t, ValidationError, err.Type)
	assert.Equal(t, "Invalid email", err.Message)
	assert.Equal(t, "format not correct", err.Detail)
	assert.Equal(t, 400, err.HTTPStatus)
}

func TestAuthenticationFailed(t *testing.T) {
	err := AuthenticationFailed("Invalid session")
	assert.Equal(t, AuthError, err.Type)
	assert.Equal(t, 401, err.HTTPStatus)
}

func TestNewConflictError(t *testing.T) {
	err := NewConflictError("Email already on waitlist", "user@example.com")
	assert.Equal(t, ConflictError, err.Type)
	assert.Equal(t, 409, err.HTTPStatus)
}

func TestNewEmailError(t *testing.T) {
	provider := fmt.Errorf("resend: 422 invalid recipient")
	err := NewEmailError(provider)
	assert.Equal(t, EmailError, err.Type)
	assert.Equal(t, 500, err.HTTPStatus)
	assert.Contains(t, err.Detail, "invalid recipient")
	assert.Equal(t, provider, err.Raw)
}

func TestErrorStringIncludesDetail(t *testing.T) {
	err := Forbidden("Admin access required", "missing is_admin claim")
	assert.Contains(t, err.Error(), "Admin access required")
	assert.Contains(t, err.Error(), "missing is_admin claim")
}
