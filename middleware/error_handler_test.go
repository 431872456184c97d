package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/AIStudyPlans/scheduled-backend/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorRouter(fail func(c *gin.Context)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", fail)
	return r
}

func doGet(router *gin.Engine) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestErrorHandler_ValidationError(t *testing.T) {
	router := errorRouter(func(c *gin.Context) {
		_ = c.Error(apperrors.ValidationFailed("Invalid email", "email must match user@host"))
		c.Abort()
	})

	w, body := doGet(router)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["type"])
	assert.Equal(t, "Invalid email", body["message"])
	assert.Equal(t, "email must match user@host", body["details"])
}

func TestErrorHandler_ConflictCarriesDetails(t *testing.T) {
	router := errorRouter(func(c *gin.Context) {
		_ = c.Error(apperrors.NewConflictError("Email already registered", "use a different address"))
		c.Abort()
	})

	w, body := doGet(router)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", body["type"])
	assert.Equal(t, "use a different address", body["details"])
}

func TestErrorHandler_DatabaseErrorSanitized(t *testing.T) {
	router := errorRouter(func(c *gin.Context) {
		_ = c.Error(apperrors.NewDatabaseError(assert.AnError))
		c.Abort()
	})

	w, body := doGet(router)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "DATABASE_ERROR", body["type"])
	assert.Equal(t, "Database operation failed", body["message"])
	// The raw driver error never reaches the client.
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestErrorHandler_UnknownErrorBecomes500(t *testing.T) {
	router := errorRouter(func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Abort()
	})

	w, body := doGet(router)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "SERVER_ERROR", body["type"])
	assert.Equal(t, "Internal Server Error", body["message"])
}

func TestErrorHandler_NoErrorPassesThrough(t *testing.T) {
	router := errorRouter(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w, _ := doGet(router)
	assert.Equal(t, http.StatusOK, w.Code)
}
