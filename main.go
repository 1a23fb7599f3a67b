// File: servora/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servora/config"
	"servora/cron"
	"servora/database"
	bookingRepo "servora/database/repository/booking"
	"servora/handlers"
	"servora/middleware"
	"servora/routes"
	"servora/services/booking"
	"servora/services/notification"
	"servora/services/payment"
	"servora/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitAuthCache()

	// Repositories.
	repo := bookingRepo.NewMongoBookingRepo()
	if err := repo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}

	// Payment gateway client (injected, not the package-level singleton).
	gateway := payment.NewStripeGateway(
		config.AppConfig.StripeKey,
		config.AppConfig.Currency,
		config.GatewayTimeout(),
		logger,
	)

	// Booking event publisher.
	var events notification.EventPublisher
	kafkaPublisher, err := notification.NewKafkaPublisher(
		config.AppConfig.KafkaBrokers,
		config.AppConfig.BookingEventsTop,
	)
	if err != nil {
		logger.Sugar().Warnf("main: kafka unavailable, booking events disabled: %v", err)
		events = notification.NoopPublisher{}
	} else {
		events = kafkaPublisher
	}

	refundQueue := cron.NewRefundQueue()

	policy := booking.Policy{
		DepositPercent: config.AppConfig.DepositPercent,
		PlatformFeeBps: config.AppConfig.PlatformFeeBps,
		ResponseWindow: config.ResponseWindow(),
		SweepBatchSize: int64(config.AppConfig.ExpirySweepBatchSize),
		CaptureRetry: booking.RetryPolicy{
			MaxAttempts: config.AppConfig.CaptureMaxAttempts,
			BaseDelay:   time.Duration(config.AppConfig.CaptureBackoffMs) * time.Millisecond,
			MaxDelay:    10 * time.Second,
		},
		TransferRetry: booking.RetryPolicy{
			MaxAttempts: config.AppConfig.TransferMaxAttempts,
			BaseDelay:   time.Duration(config.AppConfig.CaptureBackoffMs) * time.Millisecond,
			MaxDelay:    10 * time.Second,
		},
	}

	bookingService := &booking.DefaultBookingService{
		Repo:    repo,
		Gateway: gateway,
		Events:  events,
		Refunds: refundQueue,
		Policy:  policy,
		Logger:  logger,
	}

	// Background worker: deadline sweep + refund follow-ups.
	cron.InitBookingWorker(bookingService)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	routes.RegisterRoutes(router, bookingHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	if err := events.Close(); err != nil {
		logger.Sugar().Warnf("main: failed to close event publisher: %v", err)
	}
	if err := refundQueue.Close(); err != nil {
		logger.Sugar().Warnf("main: failed to close refund queue: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
