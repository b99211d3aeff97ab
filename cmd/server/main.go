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

	"github.com/picktoride/service-rental/internal/application"
	"github.com/picktoride/service-rental/internal/config"
	bookingDomain "github.com/picktoride/service-rental/internal/domain/booking"
	rentalEvents "github.com/picktoride/service-rental/internal/events"
	"github.com/picktoride/service-rental/internal/handler"
	"github.com/picktoride/service-rental/internal/platform/async"
	"github.com/picktoride/service-rental/internal/platform/auth"
	"github.com/picktoride/service-rental/internal/platform/database"
	"github.com/picktoride/service-rental/internal/platform/health"
	"github.com/picktoride/service-rental/internal/platform/kafka"
	"github.com/picktoride/service-rental/internal/platform/logger"
	"github.com/picktoride/service-rental/internal/platform/middleware"
	"github.com/picktoride/service-rental/internal/repository"
)

const serviceName = "service-rental"

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

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:         cfg.DBConfig.Host,
		Port:         cfg.DBConfig.Port,
		User:         cfg.DBConfig.User,
		Password:     cfg.DBConfig.Password,
		DBName:       cfg.DBConfig.DBName,
		SSLMode:      cfg.DBConfig.SSLMode,
		MaxOpenConns: cfg.DBConfig.MaxOpenConns,
		MaxIdleConns: cfg.DBConfig.MaxIdleConns,
		ConnLifetime: cfg.DBConfig.ConnLifetime,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// The overlap exclusion constraints live in SQL, so every environment runs the migrations.
	if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessExpiry,
		cfg.JWTConfig.RefreshExpiry,
	)

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	stores := application.Stores{
		Bookings:      repository.NewGormBookingRepository(db),
		Cars:          repository.NewGormCarRepository(db),
		Staff:         repository.NewGormStaffRepository(db),
		Schedules:     repository.NewGormDriverScheduleRepository(db),
		Maintenance:   repository.NewGormMaintenanceRepository(db),
		Extensions:    repository.NewGormExtensionRepository(db),
		HandOvers:     repository.NewGormHandOverRepository(db),
		Returns:       repository.NewGormReturnRepository(db),
		Payments:      repository.NewGormPaymentRepository(db),
		Notifications: repository.NewGormNotificationRepository(db),
	}
	txManager := database.NewTxManager(db)

	// Side effects run after commit and never fail the request.
	dispatcher := async.NewDispatcher(log, async.WithTimeout(cfg.SideEffectTimeout))
	notificationService := application.NewNotificationService(stores.Notifications)
	auditLogger := application.NewAuditLogger(repository.NewGormAuditRepository(db))
	publisher := rentalEvents.NewKafkaPublisher(kafkaProducer)
	effects := application.NewSideEffects(dispatcher, notificationService, auditLogger, publisher, log)

	// Initialize application services
	pricingStrategy := bookingDomain.NewStandardPricingStrategy(cfg.Pricing.DriverDailyRate, cfg.Pricing.BookingFee)
	bookingService := application.NewBookingService(txManager, stores, pricingStrategy, effects, log,
		application.WithCurrency(cfg.Pricing.Currency))
	allocationService := application.NewAllocationService(txManager, stores, effects, log)
	paymentService := application.NewPaymentService(txManager, stores, bookingService, effects, log)
	fleetService := application.NewFleetService(txManager, stores, effects, log)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "rental-service"
	paymentConsumer := rentalEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		paymentService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	health.NewHandler(db, serviceName).RegisterRoutes(router)

	api := &router.RouterGroup
	handler.NewBookingHandler(bookingService).RegisterRoutes(api, jwtManager)
	handler.NewAllocationHandler(allocationService).RegisterRoutes(api, jwtManager)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(api, jwtManager)
	handler.NewFleetHandler(fleetService).RegisterRoutes(api, jwtManager)
	handler.NewNotificationHandler(notificationService).RegisterRoutes(api, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(api, jwtManager)
	handler.NewAuditLogHandler(auditLogger).RegisterRoutes(api, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

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

	log.Info("shutting down " + serviceName)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	// The consumer may still be confirming a payment and scheduling its side effects.
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warn("payment event consumer did not stop in time")
	}

	// Let in-flight notifications, audit writes and events finish before the producer closes.
	dispatcher.Wait()

	log.Info(serviceName + " stopped")
}
