// Package config handles loading and validation of application configuration
// from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Environment represents the application's running environment (development or production).
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"

	minSecretLength = 32
)

// Persistence drivers for the feedback and waitlist stores.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT"`
	Port           string      `mapstructure:"PORT"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS"`
	Version        string      `mapstructure:"VERSION"`
	// AppURL is the public URL of the marketing site, embedded in email links.
	AppURL string `mapstructure:"APP_URL"`
}

// DatabaseConfig holds PostgreSQL connection details. Only consulted when the
// persistence driver is "postgres".
type DatabaseConfig struct {
	Host         string `mapstructure:"HOST"`
	Port         int    `mapstructure:"PORT"`
	User         string `mapstructure:"USER"`
	Password     string `mapstructure:"PASSWORD"`
	Name         string `mapstructure:"NAME"`
	SSLMode      string `mapstructure:"SSL_MODE"`
	MaxOpenConns int    `mapstructure:"MAX_OPEN_CONNS"`
}

// URL returns a postgres:// connection URL suitable for golang-migrate and pgxpool.
func (c *DatabaseConfig) URL() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		sslmode,
	)
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	Address  string `mapstructure:"ADDRESS"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
	UseTLS   bool   `mapstructure:"USE_TLS"`
}

// EmailConfig holds configuration for sending emails through Resend.
type EmailConfig struct {
	FromAddress  string `mapstructure:"FROM_ADDRESS"`
	FromName     string `mapstructure:"FROM_NAME"`
	ReplyTo      string `mapstructure:"REPLY_TO"`
	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
}

// CampaignConfig holds the feedback drip-campaign scheduling knobs.
type CampaignConfig struct {
	// IntervalMinutes is how often the scheduler pass runs.
	IntervalMinutes int `mapstructure:"INTERVAL_MINUTES"`
	// BatchSize caps how many due users a single pass will dispatch.
	BatchSize int `mapstructure:"BATCH_SIZE"`
	// InitialDelayDays is the wait after the welcome email (position 0).
	InitialDelayDays int `mapstructure:"INITIAL_DELAY_DAYS"`
	// StepDelayDays is the wait between campaign steps (positions 1-3).
	StepDelayDays int `mapstructure:"STEP_DELAY_DAYS"`
}

// SupabaseConfig holds the optional Supabase mirror settings.
type SupabaseConfig struct {
	URL     string `mapstructure:"URL"`
	AnonKey string `mapstructure:"ANON_KEY"`
	Table   string `mapstructure:"TABLE"`
}

// Enabled reports whether the Supabase mirror should be constructed.
func (c *SupabaseConfig) Enabled() bool {
	return c.URL != "" && c.AnonKey != ""
}

// AdminConfig holds the admin capability-check settings.
type AdminConfig struct {
	// JWTSecret validates HS256 session tokens carrying an is_admin claim.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWKSURL, when set, enables RS256 validation against a remote keyset.
	JWKSURL string `mapstructure:"JWKS_URL"`
	// DevOverride allows the isAdmin cookie shortcut. Development only.
	DevOverride bool `mapstructure:"DEV_OVERRIDE"`
}

// ArchiveConfig holds the optional S3/R2 export-archive settings.
type ArchiveConfig struct {
	AccountID       string `mapstructure:"ACCOUNT_ID"`
	Bucket          string `mapstructure:"BUCKET"`
	AccessKeyID     string `mapstructure:"ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"SECRET_ACCESS_KEY"`
	Prefix          string `mapstructure:"PREFIX"`
}

// Enabled reports whether export archiving should be constructed.
func (c *ArchiveConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// RateLimitConfig holds configuration for rate limiting public endpoints.
type RateLimitConfig struct {
	// SignupRequestsPerMinute caps waitlist/contact submissions per client IP.
	SignupRequestsPerMinute int `mapstructure:"SIGNUP_REQUESTS_PER_MINUTE"`
	WindowSeconds           int `mapstructure:"WINDOW_SECONDS"`
}

// WorkerPoolConfig holds configuration for the campaign send worker pool.
type WorkerPoolConfig struct {
	MaxWorkers             int `mapstructure:"MAX_WORKERS"`
	QueueSize              int `mapstructure:"QUEUE_SIZE"`
	ShutdownTimeoutSeconds int `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
}

// Config aggregates all application configuration sections.
type Config struct {
	Server      ServerConfig     `mapstructure:"SERVER"`
	Persistence string           `mapstructure:"PERSISTENCE_DRIVER"`
	Database    DatabaseConfig   `mapstructure:"DATABASE"`
	Redis       RedisConfig      `mapstructure:"REDIS"`
	Email       EmailConfig      `mapstructure:"EMAIL"`
	Campaign    CampaignConfig   `mapstructure:"CAMPAIGN"`
	Supabase    SupabaseConfig   `mapstructure:"SUPABASE"`
	Admin       AdminConfig      `mapstructure:"ADMIN"`
	Archive     ArchiveConfig    `mapstructure:"ARCHIVE"`
	RateLimit   RateLimitConfig  `mapstructure:"RATE_LIMIT"`
	WorkerPool  WorkerPoolConfig `mapstructure:"WORKER_POOL"`
}

// IsDevelopment returns true if the application is running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables using Viper,
// sets default values, unmarshals into the Config struct, and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER.APP_URL", "http://localhost:3000")
	v.SetDefault("PERSISTENCE_DRIVER", DriverMemory)
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.NAME", "scheduled_dev")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.MAX_OPEN_CONNS", 5)
	v.SetDefault("REDIS.ADDRESS", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("EMAIL.FROM_NAME", "SchedulEd")
	v.SetDefault("CAMPAIGN.INTERVAL_MINUTES", 60)
	v.SetDefault("CAMPAIGN.BATCH_SIZE", 50)
	v.SetDefault("CAMPAIGN.INITIAL_DELAY_DAYS", 5)
	v.SetDefault("CAMPAIGN.STEP_DELAY_DAYS", 10)
	v.SetDefault("SUPABASE.TABLE", "waitlist_users")
	v.SetDefault("ADMIN.DEV_OVERRIDE", false)
	v.SetDefault("ARCHIVE.PREFIX", "feedback-exports")
	v.SetDefault("RATE_LIMIT.SIGNUP_REQUESTS_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT.WINDOW_SECONDS", 60)
	v.SetDefault("WORKER_POOL.MAX_WORKERS", 4)
	v.SetDefault("WORKER_POOL.QUEUE_SIZE", 256)
	v.SetDefault("WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", 30)
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][2]string{
		// Server config
		{"SERVER.ENVIRONMENT", "ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		{"SERVER.APP_URL", "APP_URL"},
		// Persistence
		{"PERSISTENCE_DRIVER", "PERSISTENCE_DRIVER"},
		// Database config
		{"DATABASE.HOST", "DB_HOST"},
		{"DATABASE.PORT", "DB_PORT"},
		{"DATABASE.USER", "DB_USER"},
		{"DATABASE.PASSWORD", "DB_PASSWORD"},
		{"DATABASE.NAME", "DB_NAME"},
		{"DATABASE.SSL_MODE", "DB_SSL_MODE"},
		// Redis config
		{"REDIS.ADDRESS", "REDIS_ADDRESS"},
		{"REDIS.PASSWORD", "REDIS_PASSWORD"},
		{"REDIS.DB", "REDIS_DB"},
		{"REDIS.USE_TLS", "REDIS_USE_TLS"},
		// Email config
		{"EMAIL.FROM_ADDRESS", "EMAIL_FROM"},
		{"EMAIL.FROM_NAME", "EMAIL_FROM_NAME"},
		{"EMAIL.REPLY_TO", "EMAIL_REPLY_TO"},
		{"EMAIL.RESEND_API_KEY", "RESEND_API_KEY"},
		// Campaign config
		{"CAMPAIGN.INTERVAL_MINUTES", "CAMPAIGN_INTERVAL_MINUTES"},
		{"CAMPAIGN.BATCH_SIZE", "CAMPAIGN_BATCH_SIZE"},
		{"CAMPAIGN.INITIAL_DELAY_DAYS", "CAMPAIGN_INITIAL_DELAY_DAYS"},
		{"CAMPAIGN.STEP_DELAY_DAYS", "CAMPAIGN_STEP_DELAY_DAYS"},
		// Supabase mirror
		{"SUPABASE.URL", "SUPABASE_URL"},
		{"SUPABASE.ANON_KEY", "SUPABASE_ANON_KEY"},
		{"SUPABASE.TABLE", "SUPABASE_TABLE"},
		// Admin auth
		{"ADMIN.JWT_SECRET", "ADMIN_JWT_SECRET"},
		{"ADMIN.JWKS_URL", "ADMIN_JWKS_URL"},
		{"ADMIN.DEV_OVERRIDE", "ADMIN_DEV_OVERRIDE"},
		// Export archive
		{"ARCHIVE.ACCOUNT_ID", "ARCHIVE_ACCOUNT_ID"},
		{"ARCHIVE.BUCKET", "ARCHIVE_BUCKET"},
		{"ARCHIVE.ACCESS_KEY_ID", "ARCHIVE_ACCESS_KEY_ID"},
		{"ARCHIVE.SECRET_ACCESS_KEY", "ARCHIVE_SECRET_ACCESS_KEY"},
		{"ARCHIVE.PREFIX", "ARCHIVE_PREFIX"},
		// Rate limit config
		{"RATE_LIMIT.SIGNUP_REQUESTS_PER_MINUTE", "RATE_LIMIT_SIGNUP_REQUESTS_PER_MINUTE"},
		{"RATE_LIMIT.WINDOW_SECONDS", "RATE_LIMIT_WINDOW_SECONDS"},
		// WorkerPool config
		{"WORKER_POOL.MAX_WORKERS", "WORKER_POOL_MAX_WORKERS"},
		{"WORKER_POOL.QUEUE_SIZE", "WORKER_POOL_QUEUE_SIZE"},
		{"WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", "WORKER_POOL_SHUTDOWN_TIMEOUT_SECONDS"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg, log); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Infow("Configuration loaded",
		"environment", cfg.Server.Environment,
		"server_port", cfg.Server.Port,
		"persistence_driver", cfg.Persistence,
		"redis_address", cfg.Redis.Address,
		"email_from", logger.MaskEmail(cfg.Email.FromAddress),
		"resend_key", logger.MaskSensitiveString(cfg.Email.ResendAPIKey, 3, 2),
		"supabase_mirror", cfg.Supabase.Enabled(),
		"export_archive", cfg.Archive.Enabled(),
		"campaign_interval_minutes", cfg.Campaign.IntervalMinutes,
	)

	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config, log *zap.SugaredLogger) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if !containsWildcard(cfg.Server.AllowedOrigins) {
		for _, origin := range cfg.Server.AllowedOrigins {
			if _, err := url.ParseRequestURI(origin); err != nil {
				return fmt.Errorf("invalid allowed origin '%s': %w", origin, err)
			}
		}
	}
	if _, err := url.ParseRequestURI(cfg.Server.AppURL); err != nil {
		return fmt.Errorf("invalid app URL '%s': %w", cfg.Server.AppURL, err)
	}

	switch cfg.Persistence {
	case DriverMemory:
		// Nothing to validate; data lives for the lifetime of the process.
	case DriverPostgres:
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if cfg.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if cfg.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
		if cfg.Database.Password == "" {
			log.Warn("Database password is not set. Ensure this is intended (e.g., using trusted auth).")
		}
	default:
		return fmt.Errorf("unknown persistence driver %q (expected %q or %q)",
			cfg.Persistence, DriverMemory, DriverPostgres)
	}

	if cfg.Redis.Address == "" {
		return fmt.Errorf("redis address is required")
	}

	if cfg.Email.FromAddress == "" {
		return fmt.Errorf("email from address is required")
	}
	if cfg.Email.ResendAPIKey == "" {
		return fmt.Errorf("resend API key is required")
	}

	if cfg.Campaign.IntervalMinutes <= 0 {
		return fmt.Errorf("campaign interval must be positive")
	}
	if cfg.Campaign.BatchSize <= 0 {
		return fmt.Errorf("campaign batch size must be positive")
	}
	if cfg.Campaign.InitialDelayDays <= 0 || cfg.Campaign.StepDelayDays <= 0 {
		return fmt.Errorf("campaign delays must be positive")
	}

	if cfg.Admin.JWTSecret == "" && cfg.Admin.JWKSURL == "" && !cfg.Admin.DevOverride {
		return fmt.Errorf("no admin auth method configured: set ADMIN_JWT_SECRET, ADMIN_JWKS_URL, or ADMIN_DEV_OVERRIDE")
	}
	if cfg.Admin.JWTSecret != "" && len(cfg.Admin.JWTSecret) < minSecretLength {
		return fmt.Errorf("admin JWT secret must be at least %d characters long", minSecretLength)
	}
	if cfg.Admin.JWKSURL != "" {
		if _, err := url.ParseRequestURI(cfg.Admin.JWKSURL); err != nil {
			return fmt.Errorf("invalid admin JWKS URL: %w", err)
		}
	}
	// The cookie override bypasses real auth; refuse to carry it into production.
	if cfg.Admin.DevOverride && cfg.IsProduction() {
		log.Warn("ADMIN_DEV_OVERRIDE is set in production, disabling it")
		cfg.Admin.DevOverride = false
	}

	if cfg.RateLimit.SignupRequestsPerMinute <= 0 {
		return fmt.Errorf("rate limit signup requests per minute must be positive")
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit window seconds must be positive")
	}

	if cfg.WorkerPool.MaxWorkers <= 0 {
		return fmt.Errorf("worker pool max workers must be positive")
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		return fmt.Errorf("worker pool queue size must be positive")
	}
	if cfg.WorkerPool.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("worker pool shutdown timeout must be positive")
	}

	return nil
}

// containsWildcard checks if the list of allowed origins contains the wildcard "*".
func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
