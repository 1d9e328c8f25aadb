package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mentorbook/mentorbook-api/config"
	"github.com/mentorbook/mentorbook-api/internal/cache"
	"github.com/mentorbook/mentorbook-api/internal/handlers"
	"github.com/mentorbook/mentorbook-api/internal/middleware"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/internal/notify"
	"github.com/mentorbook/mentorbook-api/internal/repository"
	"github.com/mentorbook/mentorbook-api/internal/schedule"
	"github.com/mentorbook/mentorbook-api/internal/services"
	"github.com/mentorbook/mentorbook-api/pkg/db"
	"github.com/mentorbook/mentorbook-api/pkg/httpclient"
	"github.com/mentorbook/mentorbook-api/pkg/jwt"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"github.com/mentorbook/mentorbook-api/pkg/metrics"
	"github.com/mentorbook/mentorbook-api/pkg/profiling"
	"github.com/mentorbook/mentorbook-api/pkg/storage"
	"github.com/mentorbook/mentorbook-api/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// registerBookingRoutes registers the availability and session routes.
// All of them require an authenticated actor; fine-grained ownership
// checks happen in the services.
func registerBookingRoutes(
	v1 *gin.RouterGroup,
	generalRateLimiter, bookingRateLimiter, recordingRateLimiter *middleware.RateLimiter,
	availabilityHandler *handlers.AvailabilityHandler,
	blackoutHandler *handlers.BlackoutHandler,
	sessionHandler *handlers.SessionHandler,
) {
	// Offering availability
	offerings := v1.Group("/offerings")
	offerings.GET("/:id/availability", generalRateLimiter.Middleware(), availabilityHandler.GetAvailability)
	offerings.PATCH("/:id/availability", bookingRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), availabilityHandler.UpdateAvailability)
	offerings.PATCH("/:id/mentoring", bookingRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(10*1024), availabilityHandler.UpdateMentoringBlock)
	offerings.GET("/:id/slots", generalRateLimiter.Middleware(), availabilityHandler.PreviewSlots)

	// Mentor blackouts
	blackouts := v1.Group("/mentor-blackouts")
	blackouts.Use(middleware.RequireRole(models.RoleMentor, models.RoleAdmin))
	blackouts.POST("", bookingRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(10*1024), blackoutHandler.Create)
	blackouts.GET("", generalRateLimiter.Middleware(), blackoutHandler.List)
	blackouts.DELETE("/:id", bookingRateLimiter.Middleware(), blackoutHandler.Delete)

	// Session lifecycle
	sessions := v1.Group("/sessions")
	sessions.POST("", bookingRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), sessionHandler.Create)
	sessions.GET("", generalRateLimiter.Middleware(), sessionHandler.List)
	sessions.GET("/:id", generalRateLimiter.Middleware(), sessionHandler.Get)
	sessions.PATCH("/:id", bookingRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), sessionHandler.Update)
	sessions.DELETE("/:id", bookingRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(10*1024), sessionHandler.Cancel)
	sessions.POST("/:id/complete", bookingRateLimiter.Middleware(), middleware.RequireRole(models.RoleMentor, models.RoleAdmin), sessionHandler.Complete)
	sessions.POST("/:id/reschedule", bookingRateLimiter.Middleware(), middleware.RequireRole(models.RoleMentor, models.RoleAdmin), middleware.BodySizeLimitMiddleware(10*1024), sessionHandler.Reschedule)
	sessions.POST("/:id/recording", recordingRateLimiter.Middleware(), middleware.RequireRole(models.RoleMentor, models.RoleAdmin), middleware.BodySizeLimitMiddleware(600*1024*1024), sessionHandler.AttachRecording)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting MentorBook API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.CollectorEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Continuous profiling (disabled unless configured)
	profilerStop, err := profiling.InitProfiler(
		cfg.Profiling,
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
	)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer profilerStop()

	// Initialize metrics with service name from config
	metrics.Init(cfg.Observability.ServiceName)

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Initialize PostgreSQL connection pool
	pool, err := db.NewPool(context.Background(), db.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
	}
	defer pool.Close()

	// NOTE: Database migrations are run separately via the migrate command

	// Recordings storage (optional)
	var storageClient storage.Client
	if cfg.Storage.AccessKeyID != "" && cfg.Storage.SecretAccessKey != "" {
		storageClient, err = storage.NewS3Client(
			cfg.Storage.AccessKeyID,
			cfg.Storage.SecretAccessKey,
			cfg.Storage.BucketName,
			cfg.Storage.Endpoint,
			cfg.Storage.Region,
		)
		if err != nil {
			logger.Fatal("Failed to initialize recordings storage client", zap.Error(err))
		}
	}

	// Repositories
	offeringRepo := repository.NewOfferingRepository(pool)
	blackoutRepo := repository.NewBlackoutRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	rosterRepo := repository.NewRosterRepository(pool)

	// Availability projection cache, fed by the offering repository
	availCache := cache.NewAvailabilityCache(offeringRepo.GetAvailability, cfg.Cache.AvailabilityTTLSeconds)

	// Schedule calculator with the configured lead time
	calculator := schedule.NewCalculator(time.Duration(cfg.Booking.LeadTimeHours) * time.Hour)

	// Webhook notifier; a nop notifier takes over when no URL is configured
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notifications.WebhookURL != "" {
		notifyClient := httpclient.NewClientWithTimeout(time.Duration(cfg.Notifications.TimeoutSeconds) * time.Second)
		notifier = notify.NewWebhookNotifier(cfg.Notifications.WebhookURL, notifyClient)
	}

	// Services
	availabilityService := services.NewAvailabilityService(offeringRepo, blackoutRepo, sessionRepo, rosterRepo, availCache, calculator)
	blackoutService := services.NewBlackoutService(blackoutRepo, cfg)
	bookingService := services.NewBookingService(sessionRepo, offeringRepo, blackoutRepo, rosterRepo, calculator, notifier, storageClient, cfg)

	// Handlers
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	blackoutHandler := handlers.NewBlackoutHandler(blackoutService)
	sessionHandler := handlers.NewSessionHandler(bookingService)
	healthHandler := handlers.NewHealthHandler(func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx) == nil
	})

	// Token manager for actor authentication
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	tokenManager := jwt.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TTLHours)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS: only allow configured origins
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiters: booking writes are throttled harder than reads, and
	// recording uploads harder still
	generalRateLimiter := middleware.NewRateLimiter(100, 200)  // 100 req/sec, burst of 200
	bookingRateLimiter := middleware.NewRateLimiter(10, 20)    // 10 req/sec, burst of 20
	recordingRateLimiter := middleware.NewRateLimiter(0.5, 2)  // 1 req/2sec, burst of 2

	// Operational endpoints (not versioned)
	api := router.Group("/api")
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// API v1 routes, all behind actor authentication
	v1 := router.Group("/api/v1")
	v1.Use(middleware.ActorAuthMiddleware(tokenManager))
	registerBookingRoutes(v1, generalRateLimiter, bookingRateLimiter, recordingRateLimiter,
		availabilityHandler, blackoutHandler, sessionHandler)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
