// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database     DatabaseConfig     `json:"database"`
	Server       ServerConfig       `json:"server"`
	Security     SecurityConfig     `json:"security"`
	JWT          JWTConfig          `json:"jwt"`
	Logging      LoggingConfig      `json:"logging"`
	Metrics      MetricsConfig      `json:"metrics"`
	Cache        CacheConfig        `json:"cache"`
	Reconciler   ReconcilerConfig   `json:"reconciler"`
	Fraud        FraudConfig        `json:"fraud"`
	RateLimit    RateLimitConfig    `json:"rate_limit"`
	Notification NotificationConfig `json:"notification"`
	Platforms    PlatformsConfig    `json:"platforms"`
	Admin        AdminConfig        `json:"admin"`
	Deployment   DeploymentConfig   `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

type ServerConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
	BodyLimit         int           `json:"body_limit"`
	EnableMetrics     bool          `json:"enable_metrics"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	ProxyHeader       string        `json:"proxy_header"`
	EnableCompression bool          `json:"enable_compression"`
}

type SecurityConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	CORSMaxAge       int      `json:"cors_max_age"`
	BcryptCost       int      `json:"bcrypt_cost"`
}

type JWTConfig struct {
	SecretKey      string        `json:"secret_key"`
	AccessTokenTTL time.Duration `json:"access_token_ttl"`
	Issuer         string        `json:"issuer"`
	Audience       string        `json:"audience"`
	Algorithm      string        `json:"algorithm"`
}

type LoggingConfig struct {
	Level      string `json:"level"`  // debug, info, warn, error
	Format     string `json:"format"` // json, text
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`

	// Reconciler sweep log, rotated separately from the app log
	EnableReconcilerLog bool   `json:"enable_reconciler_log"`
	ReconcilerLogPath   string `json:"reconciler_log_path"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled     bool          `json:"enabled"`
	RedisURL    string        `json:"redis_url"`
	RedisDB     int           `json:"redis_db"`
	RedisPrefix string        `json:"redis_prefix"`
	DefaultTTL  time.Duration `json:"default_ttl"`
}

// ReconcilerConfig drives the periodic view reconciliation sweep
type ReconcilerConfig struct {
	Enabled bool `json:"enabled"`

	// CycleInterval is how often a sweep starts. RecheckInterval is the
	// per-submission cooldown: a submission polled less than this long ago
	// is skipped by the sweep.
	CycleInterval   time.Duration `json:"cycle_interval"`
	RecheckInterval time.Duration `json:"recheck_interval"`

	// BatchLimit caps how many submissions one sweep picks up.
	// PerPlatformConcurrency caps simultaneous in-flight polls per platform.
	BatchLimit             int `json:"batch_limit"`
	PerPlatformConcurrency int `json:"per_platform_concurrency"`

	// UnreachableThreshold is the consecutive-failure count at which a
	// submission is flagged as persistently unreachable. Zero disables
	// auto-flagging.
	UnreachableThreshold int `json:"unreachable_threshold"`

	PollTimeout time.Duration `json:"poll_timeout"`
}

// FraudConfig holds the anomaly detection thresholds
type FraudConfig struct {
	// DecreaseTolerance absorbs small platform-side view recounts before a
	// decrease is treated as an anomaly.
	DecreaseTolerance int64 `json:"decrease_tolerance"`

	// GrowthCeilingMultiplier flags growth faster than this multiple of the
	// submission's historical views-per-hour. GrowthGraceViews exempts young
	// submissions still below this absolute count.
	GrowthCeilingMultiplier float64 `json:"growth_ceiling_multiplier"`
	GrowthGraceViews        int64   `json:"growth_grace_views"`
}

// RateLimitConfig holds per-action minimum intervals for the persistent gate
type RateLimitConfig struct {
	SubmissionInterval time.Duration `json:"submission_interval"`
	PayoutInterval     time.Duration `json:"payout_interval"`
	JoinInterval       time.Duration `json:"join_interval"`
}

type NotificationConfig struct {
	Enabled        bool          `json:"enabled"`
	WebhookURL     string        `json:"webhook_url"`
	WebhookTimeout time.Duration `json:"webhook_timeout"`
}

// PlatformsConfig holds per-platform API credentials. A platform with no
// credentials gets no adapter; campaigns targeting it cannot start.
type PlatformsConfig struct {
	YouTubeAPIKey        string        `json:"youtube_api_key"`
	TikTokAPIKey         string        `json:"tiktok_api_key"`
	InstagramAccessToken string        `json:"instagram_access_token"`
	RequestTimeout       time.Duration `json:"request_timeout"`
}

type AdminConfig struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"` // bcrypt
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "clipforge"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 1*time.Second),
		},
		Server: ServerConfig{
			Host:              getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:         getEnvInt("SERVER_BODY_LIMIT", 1*1024*1024), // 1MB
			EnableMetrics:     getEnvBool("SERVER_ENABLE_METRICS", true),
			TrustedProxies:    getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			ProxyHeader:       getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
			EnableCompression: getEnvBool("SERVER_ENABLE_COMPRESSION", true),
		},
		Security: SecurityConfig{
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"https://clipforge.io", "https://app.clipforge.io"}),
			AllowedMethods:   getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			CORSMaxAge:       getEnvInt("CORS_MAX_AGE", 86400),
			BcryptCost:       getEnvInt("BCRYPT_COST", 12),
		},
		JWT: JWTConfig{
			SecretKey:      getEnvString("JWT_SECRET_KEY", ""),
			AccessTokenTTL: getEnvDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
			Issuer:         getEnvString("JWT_ISSUER", "clipforge"),
			Audience:       getEnvString("JWT_AUDIENCE", "clipforge-api"),
			Algorithm:      getEnvString("JWT_ALGORITHM", "HS256"),
		},
		Logging: LoggingConfig{
			Level:               getEnvString("LOG_LEVEL", "info"),
			Format:              getEnvString("LOG_FORMAT", "json"),
			Output:              getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:            getEnvString("LOG_FILE_PATH", "/var/log/clipforge/app.log"),
			MaxSize:             getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups:          getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:              getEnvInt("LOG_MAX_AGE", 30),
			Compress:            getEnvBool("LOG_COMPRESS", true),
			EnableReconcilerLog: getEnvBool("LOG_ENABLE_RECONCILER", true),
			ReconcilerLogPath:   getEnvString("LOG_RECONCILER_PATH", "/var/log/clipforge/reconciler.log"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:     getEnvBool("CACHE_ENABLED", true),
			RedisURL:    getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:     getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix: getEnvString("CACHE_REDIS_PREFIX", "clipforge:"),
			DefaultTTL:  getEnvDuration("CACHE_DEFAULT_TTL", 5*time.Minute),
		},
		Reconciler: ReconcilerConfig{
			Enabled:                getEnvBool("RECONCILER_ENABLED", true),
			CycleInterval:          getEnvDuration("RECONCILER_CYCLE_INTERVAL", 60*time.Second),
			RecheckInterval:        getEnvDuration("RECONCILER_RECHECK_INTERVAL", 10*time.Minute),
			BatchLimit:             getEnvInt("RECONCILER_BATCH_LIMIT", 200),
			PerPlatformConcurrency: getEnvInt("RECONCILER_PER_PLATFORM_CONCURRENCY", 4),
			UnreachableThreshold:   getEnvInt("RECONCILER_UNREACHABLE_THRESHOLD", 12),
			PollTimeout:            getEnvDuration("RECONCILER_POLL_TIMEOUT", 15*time.Second),
		},
		Fraud: FraudConfig{
			DecreaseTolerance:       getEnvInt64("FRAUD_DECREASE_TOLERANCE", 50),
			GrowthCeilingMultiplier: getEnvFloat("FRAUD_GROWTH_CEILING_MULTIPLIER", 20.0),
			GrowthGraceViews:        getEnvInt64("FRAUD_GROWTH_GRACE_VIEWS", 10000),
		},
		RateLimit: RateLimitConfig{
			SubmissionInterval: getEnvDuration("RATE_LIMIT_SUBMISSION_INTERVAL", 5*time.Minute),
			PayoutInterval:     getEnvDuration("RATE_LIMIT_PAYOUT_INTERVAL", 24*time.Hour),
			JoinInterval:       getEnvDuration("RATE_LIMIT_JOIN_INTERVAL", time.Minute),
		},
		Notification: NotificationConfig{
			Enabled:        getEnvBool("NOTIFICATION_ENABLED", false),
			WebhookURL:     getEnvString("NOTIFICATION_WEBHOOK_URL", ""),
			WebhookTimeout: getEnvDuration("NOTIFICATION_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Platforms: PlatformsConfig{
			YouTubeAPIKey:        getEnvString("PLATFORM_YOUTUBE_API_KEY", ""),
			TikTokAPIKey:         getEnvString("PLATFORM_TIKTOK_API_KEY", ""),
			InstagramAccessToken: getEnvString("PLATFORM_INSTAGRAM_ACCESS_TOKEN", ""),
			RequestTimeout:       getEnvDuration("PLATFORM_REQUEST_TIMEOUT", 15*time.Second),
		},
		Admin: AdminConfig{
			Username:     getEnvString("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnvString("ADMIN_PASSWORD_HASH", ""),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() error {
	envFile := ".env"

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				if os.Getenv(key) == "" {
					os.Setenv(key, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	if cfg.Database.Host == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "DB_USER is required")
	}
	if cfg.Database.Password == "" {
		errors = append(errors, "DB_PASSWORD is required")
	}

	if cfg.JWT.SecretKey == "" {
		errors = append(errors, "JWT_SECRET_KEY is required")
	}
	if len(cfg.JWT.SecretKey) < 32 {
		errors = append(errors, "JWT_SECRET_KEY must be at least 32 characters long")
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		errors = append(errors, "JWT_ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.JWT.Issuer == "" {
		errors = append(errors, "JWT_ISSUER is required")
	}
	if cfg.JWT.Audience == "" {
		errors = append(errors, "JWT_AUDIENCE is required")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}

	if cfg.Security.BcryptCost < 10 || cfg.Security.BcryptCost > 14 {
		errors = append(errors, "BCRYPT_COST must be between 10 and 14")
	}

	if cfg.Reconciler.Enabled {
		if cfg.Reconciler.CycleInterval <= 0 {
			errors = append(errors, "RECONCILER_CYCLE_INTERVAL must be positive")
		}
		if cfg.Reconciler.RecheckInterval <= 0 {
			errors = append(errors, "RECONCILER_RECHECK_INTERVAL must be positive")
		}
		if cfg.Reconciler.PerPlatformConcurrency <= 0 {
			errors = append(errors, "RECONCILER_PER_PLATFORM_CONCURRENCY must be positive")
		}
		if cfg.Reconciler.UnreachableThreshold < 0 {
			errors = append(errors, "RECONCILER_UNREACHABLE_THRESHOLD must not be negative")
		}
	}

	if cfg.Fraud.DecreaseTolerance < 0 {
		errors = append(errors, "FRAUD_DECREASE_TOLERANCE must not be negative")
	}
	if cfg.Fraud.GrowthCeilingMultiplier <= 1 {
		errors = append(errors, "FRAUD_GROWTH_CEILING_MULTIPLIER must be greater than 1")
	}

	if cfg.RateLimit.SubmissionInterval < 0 || cfg.RateLimit.PayoutInterval < 0 || cfg.RateLimit.JoinInterval < 0 {
		errors = append(errors, "rate limit intervals must not be negative")
	}

	if cfg.Logging.Level != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		valid := false
		for _, level := range validLevels {
			if cfg.Logging.Level == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
		}
	}

	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled")
	}

	if cfg.Notification.Enabled && cfg.Notification.WebhookURL == "" {
		errors = append(errors, "NOTIFICATION_WEBHOOK_URL is required when notifications are enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
