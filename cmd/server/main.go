package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acadex/examtrack-service/internal/cache"
	"github.com/acadex/examtrack-service/internal/config"
	"github.com/acadex/examtrack-service/internal/handlers"
	"github.com/acadex/examtrack-service/internal/middleware"
	"github.com/acadex/examtrack-service/internal/repositories/postgres"
	"github.com/acadex/examtrack-service/internal/services"
	"github.com/acadex/examtrack-service/internal/utils"
	"github.com/acadex/examtrack-service/internal/validator"
	"github.com/acadex/examtrack-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogLogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pkg.AutoMigrate(db); err != nil {
		logger.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	repo := postgres.NewRepository(db)

	// Redis is optional: without it, performance reads fall back to the database.
	var cacheService cache.CacheService
	if cfg.RedisURL != "" {
		redisClient, err := pkg.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
		} else {
			defer redisClient.Close()
			cacheService = cache.NewRedisCache(redisClient, slogLogger)
		}
	}

	eventPublisher, err := config.LoadEventConfig().CreateEventPublisher(slogLogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer eventPublisher.Close()

	v := validator.New()

	eventService := services.NewResultEventService(repo, eventPublisher, slogLogger)
	examService := services.NewExamService(repo, slogLogger, v, eventService)
	resultService := services.NewResultService(repo, slogLogger, v, eventService)
	performanceService := services.NewPerformanceService(repo, slogLogger, cacheService)
	importExportService := services.NewImportExportService(repo, slogLogger, resultService)

	authMiddleware := middleware.NewAuthMiddleware(cfg, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(utils.ContextLogger(logger))

	handlerManager := handlers.NewHandlerManager(
		examService,
		resultService,
		performanceService,
		importExportService,
		authMiddleware,
		logger,
	)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
