package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/tetex-tech/exam-service/internal/config"
	"github.com/tetex-tech/exam-service/internal/handlers"
	"github.com/tetex-tech/exam-service/internal/repositories"
	"github.com/tetex-tech/exam-service/internal/repositories/httpdocs"
	"github.com/tetex-tech/exam-service/internal/repositories/rediscache"
	"github.com/tetex-tech/exam-service/internal/services"
	"github.com/tetex-tech/exam-service/internal/utils"
	"github.com/tetex-tech/exam-service/internal/validator"
	"github.com/tetex-tech/exam-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize exam document repository (HTTP source, Redis cache in front)
	var docs repositories.ExamDocumentRepository = httpdocs.New(cfg.ExamDocsBaseURL)
	if redisClient != nil {
		docs = rediscache.New(docs, redisClient, slogLogger)
	}

	// Initialize event publisher
	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	// Initialize validator
	v := validator.New()

	// Initialize services
	gradingService := services.NewGradingService(logger)
	packagingService := services.NewPackagingService(docs, gradingService, publisher, v, logger, cfg.PackagingTimeout)
	viewerService := services.NewViewerService(docs, publisher, logger, cfg.PackagingTimeout)
	exportService := services.NewExportService(logger)

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(packagingService, viewerService, exportService, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(gin.Recovery())

	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := publisher.Close(); err != nil {
		log.Printf("Failed to close event publisher: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
