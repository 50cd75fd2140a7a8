package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/inkwell/backend/internal/auth"
	"github.com/inkwell/backend/internal/cache"
	"github.com/inkwell/backend/internal/config"
	"github.com/inkwell/backend/internal/database"
	"github.com/inkwell/backend/internal/handlers"
	"github.com/inkwell/backend/internal/logger"
	"github.com/inkwell/backend/internal/metrics"
	"github.com/inkwell/backend/internal/middleware"
	"github.com/inkwell/backend/internal/posts"
	"github.com/inkwell/backend/internal/publications"
	"github.com/inkwell/backend/internal/storage"
	"github.com/inkwell/backend/internal/subscriptions"
	"github.com/inkwell/backend/internal/users"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("Inkwell server starting",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	metrics.Initialize()

	tokenService := auth.NewService(auth.Config{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenExpiry,
		RefreshTTL:    cfg.RefreshTokenExpiry,
	})

	userService := users.NewService(db, tokenService)
	publicationService := publications.NewService(db)
	postService := posts.NewService(db)
	subscriptionService := subscriptions.NewService(db)

	h := handlers.NewHandlers(cfg, tokenService, userService, publicationService, postService, subscriptionService)

	// S3 logo storage; the server still runs without it, uploads just fail.
	if cfg.AWSBucket != "" {
		s3Uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Fatal("Failed to initialize S3 uploader", zap.Error(err))
		}
		if err := s3Uploader.CheckBucketAccess(context.Background()); err != nil {
			logger.Log.Warn("S3 bucket access check failed, logo uploads will fail",
				zap.Error(err),
			)
		}
		h.SetLogoUploader(s3Uploader)
	} else {
		logger.Log.Warn("AWS_BUCKET not set, logo uploads disabled")
	}

	// Redis is optional: with it, credential rate limits are shared across
	// instances and publication reads are cached; without it, each instance
	// keeps its own in-memory buckets and every read hits the database.
	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, falling back to in-memory rate limiting",
				zap.Error(err),
			)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}
	credentialLimit := middleware.RateLimitCredentials()
	if redisClient != nil {
		credentialLimit = middleware.RedisRateLimitMiddleware(redisClient, middleware.CredentialRateLimitConfig())
		h.SetPublicationCache(redisClient)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(cfg.Environment))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.ErrorHandler(cfg.Environment))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.ClientOrigin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(db); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "inkwell-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit())
	h.RegisterRoutes(api, credentialLimit)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Forced shutdown", zap.Error(err))
	}
	logger.Log.Info("Server stopped")
}
