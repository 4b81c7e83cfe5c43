package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/grocerly/grocerly-backend/config"
	"github.com/grocerly/grocerly-backend/internal/app/controller"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	"github.com/grocerly/grocerly-backend/internal/cache"
	"github.com/grocerly/grocerly-backend/internal/db"
	"github.com/grocerly/grocerly-backend/internal/intake"
	"github.com/grocerly/grocerly-backend/internal/middleware"
	"github.com/grocerly/grocerly-backend/internal/router"
	"github.com/grocerly/grocerly-backend/internal/scheduler"
	"github.com/grocerly/grocerly-backend/internal/storage"
	"github.com/grocerly/grocerly-backend/internal/websocket"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/redis"
	"github.com/grocerly/grocerly-backend/pkg/util"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := cfg.Server.LogLevel
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting Grocerly Backend Server", map[string]interface{}{
		"environment":  cfg.Server.Environment,
		"port":         cfg.Server.Port,
		"log_level":    logLevel,
		"service_city": cfg.Marketplace.ServiceCity,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs drafts, the review cache, rate limits and token revocation.
	// Without it the server still runs with in-process fallbacks.
	reviewCache := cache.NewNoopReviewCache()
	drafts := intake.NewMemoryDraftStore(cfg.Marketplace.DraftTTL)
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, using in-memory fallbacks", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer redis.Close()
		reviewCache = cache.NewRedisReviewCache(redis.GetClient(), cfg.Marketplace.ReviewCacheTTL)
		drafts = intake.NewRedisDraftStore(redis.GetClient(), cfg.Marketplace.DraftTTL)
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	database := db.GetDB()

	// Initialize repositories
	appRepo := repository.NewApplicationRepository(database)
	userRepo := repository.NewUserRepository(database)
	storeRepo := repository.NewStoreRepository(database)
	productRepo := repository.NewProductRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, userRepo)
	applicationService := service.NewApplicationService(
		database,
		appRepo,
		userRepo,
		storeRepo,
		notificationService,
		reviewCache,
		hub,
		util.NewMailer(cfg.SMTP),
	)
	intakeService := service.NewIntakeService(
		intake.NewWizard(cfg.Marketplace.ServiceCity),
		drafts,
		applicationService,
	)
	adminService := service.NewAdminService(appRepo, userRepo, storeRepo, productRepo, notificationService, hub)
	storeService := service.NewStoreService(storeRepo)
	productService := service.NewProductService(productRepo, storeService, hub)
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	documents := storage.NewS3Storage(context.Background(), cfg.S3)

	reminders := scheduler.NewReminderScheduler(
		cfg.Marketplace.ReminderSchedule,
		cfg.Marketplace.StalePendingAfter,
		appRepo,
		notificationService,
	)
	if err := reminders.Start(); err != nil {
		logger.Fatal("Failed to start reminder scheduler", err)
	}
	defer reminders.Stop()

	r := router.NewRouter(
		router.Controllers{
			Auth:         controller.NewAuthController(authService),
			Intake:       controller.NewIntakeController(intakeService),
			Applications: controller.NewApplicationController(applicationService),
			Admin:        controller.NewAdminController(adminService),
			Upload:       controller.NewUploadController(documents),
			Notification: controller.NewNotificationController(notificationService),
			Stores:       controller.NewStoreController(storeService, productService),
			Products:     controller.NewProductController(productService),
			WS:           controller.NewWSController(hub, cfg.CORS.AllowedOrigins),
		},
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		redis.GetClient(),
		cfg,
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": server.Addr,
			"pid":     os.Getpid(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
