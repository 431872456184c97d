package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/config"
	"github.com/AIStudyPlans/scheduled-backend/db"
	"github.com/AIStudyPlans/scheduled-backend/handlers"
	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/AIStudyPlans/scheduled-backend/middleware"
	"github.com/AIStudyPlans/scheduled-backend/router"
	"github.com/AIStudyPlans/scheduled-backend/services"
	"github.com/AIStudyPlans/scheduled-backend/store"
	"github.com/AIStudyPlans/scheduled-backend/store/memory"
	"github.com/AIStudyPlans/scheduled-backend/store/postgres"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()
	defer func() { _ = logger.Close() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	delays := store.DripDelays{
		Initial: time.Duration(cfg.Campaign.InitialDelayDays) * 24 * time.Hour,
		Step:    time.Duration(cfg.Campaign.StepDelayDays) * 24 * time.Hour,
	}

	// Persistence
	var (
		feedbackStore store.FeedbackStore
		waitlistStore store.WaitlistStore
	)
	switch cfg.Persistence {
	case config.DriverPostgres:
		dbURL := cfg.Database.URL()
		if err := db.RunMigrations(dbURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		pool, err := db.Connect(ctx, dbURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()
		feedbackStore = postgres.NewFeedbackStore(pool)
		waitlistStore = postgres.NewWaitlistStore(pool, delays)
	default:
		feedbackStore = memory.NewFeedbackStore()
		waitlistStore = memory.NewWaitlistStore(delays)
	}

	// Redis
	redisOptions := &redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.UseTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOptions)
	defer func() { _ = redisClient.Close() }()

	// Services
	eventService := services.NewRedisEventService(redisClient)

	emailService, err := services.NewEmailService(&cfg.Email)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	workerPool := services.NewWorkerPool(cfg.WorkerPool)
	workerPool.Start()

	var supabaseService *services.SupabaseService
	if cfg.Supabase.Enabled() {
		supabaseService, err = services.NewSupabaseService(cfg.Supabase)
		if err != nil {
			log.Fatalf("Failed to initialize Supabase mirror: %v", err)
		}
	}

	var archiveService *services.ExportArchiveService
	if cfg.Archive.Enabled() {
		archiveService, err = services.NewExportArchiveService(cfg.Archive)
		if err != nil {
			log.Fatalf("Failed to initialize export archive: %v", err)
		}
	}

	campaignService := services.NewCampaignService(
		waitlistStore,
		emailService,
		workerPool,
		eventService,
		cfg.Campaign,
		cfg.Server.AppURL,
	)

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	go campaignService.Run(schedulerCtx)

	// Admin auth
	verifiers, err := middleware.BuildAdminVerifiers(ctx, &cfg.Admin)
	if err != nil {
		log.Fatalf("Failed to build admin verifiers: %v", err)
	}

	// Handlers and routes
	deps := router.Dependencies{
		Config:         cfg,
		RedisClient:    redisClient,
		AdminVerifiers: verifiers,
		WaitlistHandler: handlers.NewWaitlistHandler(
			waitlistStore, emailService, supabaseService, eventService, cfg.Server.AppURL),
		ContactHandler:  handlers.NewContactHandler(feedbackStore),
		FeedbackHandler: handlers.NewFeedbackHandler(feedbackStore, waitlistStore, eventService),
		AdminHandler: handlers.NewAdminHandler(
			feedbackStore, waitlistStore, campaignService, archiveService, eventService),
		HealthHandler: handlers.NewHealthHandler(cfg.Server.Version),
		Logger:        log,
	}
	r := router.SetupRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.WorkerPool.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown failed", "error", err)
	}
	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Worker pool shutdown incomplete", "error", err)
	}

	log.Info("Server stopped")
}
