package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/database"
	"github.com/Baaaki/yamdb/internal/handler"
	"github.com/Baaaki/yamdb/internal/metrics"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/notify"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/internal/validator"
	"github.com/Baaaki/yamdb/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Connect(cfg)
	database.Migrate()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := m.RegisterDB(sqlDB); err != nil {
			logger.Log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// Redis is optional; without it the auth endpoints are not rate limited.
	var rateLimiter *middleware.RateLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		rateLimiter = middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
			KeyPrefix:   "ratelimit:auth",
		})
		logger.Log.Info("Auth rate limiting enabled",
			zap.Int("max_requests", cfg.RateLimitMaxRequests),
			zap.Duration("window", cfg.RateLimitWindow),
		)
	}

	notifier, err := notify.New(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, cfg.IsProduction())
	if err != nil {
		logger.Log.Fatal("Mail delivery is not configured", zap.Error(err))
	}
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	v := validator.New()

	// Initialize repositories
	db := database.DB
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewTaxonomyRepository[models.Category](db)
	genreRepo := repository.NewTaxonomyRepository[models.Genre](db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Initialize services and routes
	router := handler.NewRouter(handler.Deps{
		Config: cfg,
		DB:     db,
		Auth: service.NewAuthService(userRepo, notifier, tokens, v, service.AuthOptions{
			SingleUseCodes: cfg.ConfirmationCodeSingleUse,
		}),
		Users:       service.NewUserService(userRepo, v),
		Categories:  service.NewCategoryService(categoryRepo, v),
		Genres:      service.NewGenreService(genreRepo, v),
		Titles:      service.NewTitleService(titleRepo, categoryRepo, genreRepo, v),
		Reviews:     service.NewReviewService(reviewRepo, titleRepo, v),
		Comments:    service.NewCommentService(commentRepo, reviewRepo, v),
		Metrics:     m,
		RateLimiter: rateLimiter,
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.Info("Server starting", zap.String("addr", cfg.ServerPort), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
