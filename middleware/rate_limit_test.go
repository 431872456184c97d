package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func rateLimitRouter(limiter gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/waitlist", limiter, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestSignupRateLimiter_UnderLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	window := time.Minute
	key := "ratelimit:signup:1.2.3.4"

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, window).SetVal(true)
	mock.ExpectTxPipelineExec()

	router := rateLimitRouter(SignupRateLimiter(client, 10, window))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/waitlist", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupRateLimiter_OverLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	window := time.Minute
	key := "ratelimit:signup:1.2.3.4"

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(11)
	mock.ExpectExpire(key, window).SetVal(true)
	mock.ExpectTxPipelineExec()
	mock.ExpectTTL(key).SetVal(30 * time.Second)

	router := rateLimitRouter(SignupRateLimiter(client, 10, window))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/waitlist", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupRateLimiter_RedisDownFailsOpen(t *testing.T) {
	client, mock := redismock.NewClientMock()
	window := time.Minute
	key := "ratelimit:signup:1.2.3.4"

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetErr(assert.AnError)

	router := rateLimitRouter(SignupRateLimiter(client, 10, window))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/waitlist", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
