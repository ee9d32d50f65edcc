// Package main provides the main entry point for the ClipForge campaign engine
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipforge/clipforge/app/handlers"
	"github.com/clipforge/clipforge/app/middleware"
	"github.com/clipforge/clipforge/app/router"
	"github.com/clipforge/clipforge/app/scheduler"
	"github.com/clipforge/clipforge/app/services"
	businessflow "github.com/clipforge/clipforge/business_flow"
	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/repository"
	"github.com/clipforge/clipforge/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting ClipForge application...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// runMigrations keeps the schema in sync with the model definitions
func runMigrations(db *gorm.DB) error {
	if err := models.EnsureEnumTypes(db); err != nil {
		return err
	}
	return db.AutoMigrate(
		&models.User{},
		&models.Campaign{},
		&models.CampaignMember{},
		&models.Submission{},
		&models.ViewSample{},
		&models.RateLimitEntry{},
		&models.Payout{},
		&models.AuditLog{},
	)
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// buildAdapterRegistry creates platform adapters for every platform with credentials
func buildAdapterRegistry(cfg config.PlatformsConfig) *services.AdapterRegistry {
	var adapters []services.PlatformAdapter
	if cfg.YouTubeAPIKey != "" {
		adapters = append(adapters, services.NewYouTubeClient(cfg))
	}
	if cfg.TikTokAPIKey != "" {
		adapters = append(adapters, services.NewTikTokClient(cfg))
	}
	if cfg.InstagramAccessToken != "" {
		adapters = append(adapters, services.NewInstagramClient(cfg))
	}

	registry := services.NewAdapterRegistry(adapters...)
	log.Printf("Platform adapters configured: %v", registry.Platforms())
	return registry
}

// verifyActiveCampaignCoverage refuses to start when an active campaign
// targets a platform that has no configured adapter, since its submissions
// could never be reconciled
func verifyActiveCampaignCoverage(db *gorm.DB, registry *services.AdapterRegistry) error {
	campaignRepo := repository.NewCampaignRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	active, err := campaignRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active campaigns: %w", err)
	}

	for _, campaign := range active {
		for _, raw := range campaign.Platforms {
			platform, err := models.ParsePlatform(raw)
			if err != nil {
				return fmt.Errorf("campaign %s has unknown platform %q", campaign.Name, raw)
			}
			if !registry.Has(platform) {
				return fmt.Errorf("campaign %s targets platform %s with no configured adapter", campaign.Name, platform)
			}
		}
	}
	return nil
}

// initializeNotificationService picks the notifier implementation from config
func initializeNotificationService(cfg config.NotificationConfig) services.NotificationService {
	if !cfg.Enabled {
		return nil
	}
	if cfg.WebhookURL != "" {
		return services.NewWebhookNotificationService(cfg)
	}
	return services.NewLogNotificationService()
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	adapterRegistry := buildAdapterRegistry(cfg.Platforms)
	if err := verifyActiveCampaignCoverage(db, adapterRegistry); err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	memberRepo := repository.NewCampaignMemberRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	sampleRepo := repository.NewViewSampleRepository(db)
	rateLimitRepo := repository.NewRateLimitRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	notificationService := initializeNotificationService(cfg.Notification)

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	clock := utils.SystemClock{}
	rateLimiter := businessflow.NewRateLimiter(rateLimitRepo, clock)
	fraudDetector := businessflow.NewFraudDetector(cfg.Fraud)

	// Initialize flows
	authFlow := businessflow.NewAuthFlow(userRepo, auditRepo, tokenService, cfg.Admin)

	campaignFlow := businessflow.NewCampaignFlow(
		campaignRepo,
		memberRepo,
		userRepo,
		auditRepo,
		adapterRegistry,
		rateLimiter,
		cfg.RateLimit,
		db,
		rc,
		&cfg.Cache,
	)

	submissionFlow := businessflow.NewSubmissionFlow(
		submissionRepo,
		campaignRepo,
		memberRepo,
		userRepo,
		sampleRepo,
		auditRepo,
		adapterRegistry,
		rateLimiter,
		notificationService,
		cfg.RateLimit,
		clock,
		db,
	)

	payoutFlow := businessflow.NewPayoutFlow(
		payoutRepo,
		submissionRepo,
		campaignRepo,
		userRepo,
		auditRepo,
		rateLimiter,
		notificationService,
		cfg.RateLimit,
		clock,
		db,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authFlow)
	campaignHandler := handlers.NewCampaignHandler(campaignFlow)
	submissionHandler := handlers.NewSubmissionHandler(submissionFlow)
	payoutHandler := handlers.NewPayoutHandler(payoutFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		cfg,
		authHandler,
		campaignHandler,
		submissionHandler,
		payoutHandler,
		authMiddleware,
	)

	if cfg.Reconciler.Enabled {
		reconciler := scheduler.NewViewReconciler(
			submissionRepo,
			sampleRepo,
			adapterRegistry,
			fraudDetector,
			notificationService,
			db,
			cfg.Reconciler,
			cfg.Logging,
			clock,
		)
		stopReconciler := reconciler.Start(context.Background())
		stopFuncs = append(stopFuncs, stopReconciler)
		log.Printf("View reconciler started with cycle interval %s", cfg.Reconciler.CycleInterval)
	}

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
