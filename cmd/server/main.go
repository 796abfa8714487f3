package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hearthstay/service-booking/internal/application"
	"github.com/hearthstay/service-booking/internal/common/auth"
	"github.com/hearthstay/service-booking/internal/common/cache"
	"github.com/hearthstay/service-booking/internal/common/database"
	"github.com/hearthstay/service-booking/internal/common/health"
	"github.com/hearthstay/service-booking/internal/common/kafka"
	"github.com/hearthstay/service-booking/internal/common/logger"
	"github.com/hearthstay/service-booking/internal/common/middleware"
	"github.com/hearthstay/service-booking/internal/config"
	bookingDomain "github.com/hearthstay/service-booking/internal/domain/booking"
	bookingEvents "github.com/hearthstay/service-booking/internal/events"
	"github.com/hearthstay/service-booking/internal/handler"
	"github.com/hearthstay/service-booking/internal/repository"
	"github.com/hearthstay/service-booking/migrations"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	if cfg.JWTConfig.DevSecret {
		log.Warn("BOOKING_JWT_SECRET not set; using the development secret, tokens are forgeable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Schema always comes from the SQL migrations; the overlap exclusion
	// constraint cannot be expressed through AutoMigrate.
	if err := database.RunMigrations(migrations.FS, cfg.DBConfig.DatabaseURL(), log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Connect to redis
	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisConfig)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	// Initialize JWT manager; this service only verifies access tokens.
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	listingRepo := repository.NewCachedListingRepository(
		repository.NewGormListingRepository(db),
		redisClient,
		cfg.RedisConfig.ListingTTL,
		log.Named("listing-cache"),
	)
	txManager := database.NewTxManager(db)

	// Initialize pricing strategy
	pricingStrategy := bookingDomain.NewNightlyPricingStrategy(cfg.Pricing.ServiceFeePercent)

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		listingRepo,
		txManager,
		pricingStrategy,
		kafkaProducer,
		cfg.KafkaConfig.BookingTopic,
		log,
	)
	projectionService := application.NewListingProjectionService(listingRepo, log)

	// Start listing event consumer in a goroutine
	listingConsumer := bookingEvents.NewListingEventConsumer(
		cfg.KafkaConfig.Brokers,
		cfg.KafkaConfig.ConsumerGroup,
		cfg.KafkaConfig.ListingTopic,
		projectionService,
		log,
	)
	defer func() { _ = listingConsumer.Close() }()

	go func() {
		log.Info("starting listing event consumer", zap.String("topic", cfg.KafkaConfig.ListingTopic))
		if err := listingConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("listing event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	hostHandler := handler.NewHostBookingHandler(bookingService)

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", zap.Error(err))
	}
	healthHandler := health.NewHandler(serviceName, map[string]health.Checker{
		"postgres": health.CheckFunc(sqlDB.PingContext),
		"redis": health.CheckFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}, log.Named("health"))
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	hostHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
