package router

import (
	"time"

	"github.com/AIStudyPlans/scheduled-backend/config"
	"github.com/AIStudyPlans/scheduled-backend/handlers"
	"github.com/AIStudyPlans/scheduled-backend/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies holds everything SetupRouter needs to wire the route table.
type Dependencies struct {
	Config          *config.Config
	RedisClient     *redis.Client
	AdminVerifiers  []middleware.AdminVerifier
	WaitlistHandler *handlers.WaitlistHandler
	ContactHandler  *handlers.ContactHandler
	FeedbackHandler *handlers.FeedbackHandler
	AdminHandler    *handlers.AdminHandler
	HealthHandler   *handlers.HealthHandler
	Logger          *zap.SugaredLogger
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// Global middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))

	// Health and metrics routes (no auth)
	r.GET("/health", deps.HealthHandler.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	window := time.Duration(deps.Config.RateLimit.WindowSeconds) * time.Second
	signupLimiter := middleware.SignupRateLimiter(
		deps.RedisClient,
		deps.Config.RateLimit.SignupRequestsPerMinute,
		window,
	)

	v1 := r.Group("/v1")
	{
		// Public form endpoints
		v1.POST("/waitlist", signupLimiter, deps.WaitlistHandler.Join)
		v1.POST("/contact/support", signupLimiter, deps.ContactHandler.Support)
		v1.POST("/contact/sales", signupLimiter, deps.ContactHandler.Sales)
		v1.POST("/feedback", deps.FeedbackHandler.Submit)

		// Admin dashboard endpoints
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AdminAuth(deps.Config, deps.AdminVerifiers...))
		{
			adminRoutes.GET("/feedback", deps.AdminHandler.ListFeedback)
			adminRoutes.GET("/feedback/stats", deps.AdminHandler.Stats)
			adminRoutes.GET("/feedback/analytics", deps.AdminHandler.Analytics)
			adminRoutes.GET("/feedback/export", deps.AdminHandler.ExportCSV)
			adminRoutes.GET("/feedback/stream", middleware.SSEHeaders(), deps.AdminHandler.Stream)
			adminRoutes.POST("/campaign/run", deps.AdminHandler.RunCampaign)
			adminRoutes.POST("/clear-data", deps.AdminHandler.ClearData)
		}
	}

	return r
}
