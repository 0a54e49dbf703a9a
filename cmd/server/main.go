package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/marks-service/internal/cache"
	"github.com/SAP-F-2025/marks-service/internal/config"
	"github.com/SAP-F-2025/marks-service/internal/handlers"
	"github.com/SAP-F-2025/marks-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/marks-service/internal/services"
	"github.com/SAP-F-2025/marks-service/internal/utils"
	"github.com/SAP-F-2025/marks-service/internal/validator"
	"github.com/SAP-F-2025/marks-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Database initialisation failed", "error", err)
		os.Exit(1)
	}
	repo := postgres.NewRepository(db)
	defer repo.Close()

	cacheService := cache.NewNoopCache()
	redisClient, err := pkg.NewRedisClient(context.Background(), cfg)
	if err != nil {
		logger.Warn("Redis unavailable, assessment lists will not be cached", "error", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, slogger)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("Event publisher initialisation failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Cache:     cacheService,
		Publisher: publisher,
		Validator: validator.New(),
		Logger:    slogger,
		Config: services.ServiceConfig{
			CacheTTL:              cfg.CacheTTL,
			LenientAssessmentType: cfg.Validation.LenientAssessmentType,
			StrictBreakdownMax:    cfg.Validation.StrictBreakdownMax,
		},
	})

	router := handlers.NewRouter(handlers.NewHandlerManager(serviceManager, logger), logger, cfg.RequestTimeout)
	server := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting marks service", "address", server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(server, logger)
}

func waitForShutdown(server *http.Server, logger utils.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}

	logger.Info("Server stopped")
}
