package main

import (
	"Augur_1.0/backend/go/internal/backfill_service"
	"Augur_1.0/backend/go/internal/config"
	"Augur_1.0/backend/go/internal/database/mongo"
	"Augur_1.0/backend/go/internal/marketdata"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/internal/prediction_service/store"
	"Augur_1.0/backend/go/pkg/logger"
	"Augur_1.0/backend/go/pkg/retry"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("backend/go/internal/config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logLevel, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Invalid logger level: %v", err)
	}
	logger.Init(logLevel)

	serviceLogger := logger.New("BackfillService", "")

	// Connect to MongoDB using the singleton GetClient
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MongoDB")
	}
	db := mongoClient.Database(cfg.Databases.MongoDB.Database)
	serviceLogger.Info("Successfully connected to MongoDB")

	collections := cfg.Databases.Collections
	predictionStore := store.NewMongoPredictionStore(
		db.Collection(collections.Predictions),
		db.Collection(collections.Staging),
	)
	// Wrap market data in the retry executor so a transient quote
	// failure does not abort a record's backfill for the whole cycle.
	exec := retry.New(retryPolicy(cfg.Retry), retry.DefaultClassifier)
	market := marketdata.NewRetryingProvider(marketdata.NewYahooClient(cfg.MarketData), exec)

	reconciler := backfill_service.NewReconciler(predictionStore, market, backfill_service.Options{
		Interval:     config.Duration(cfg.Backfill.Interval, 10*time.Minute),
		MinAge:       config.Duration(cfg.Backfill.MinAge, 90*time.Minute),
		BufferWindow: config.Duration(cfg.Backfill.BufferWindow, 3*time.Hour),
		BatchLimit:   cfg.Backfill.BatchLimit,
	}, serviceLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		reconciler.Run(ctx)
	}()
	serviceLogger.Info("Backfill reconciler started")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down...")

	cancel()
	<-done

	if err := mongo.Close(context.Background()); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
	}

	serviceLogger.Info("Backfill service stopped")
}

// retryPolicy maps the config block onto an executor policy.
func retryPolicy(cfg config.RetryConfig) retry.Policy {
	policy := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	policy.MinDelay = config.Duration(cfg.MinDelay, policy.MinDelay)
	policy.MaxDelay = config.Duration(cfg.MaxDelay, policy.MaxDelay)
	if cfg.Multiplier > 1 {
		policy.Multiplier = cfg.Multiplier
	}
	if cfg.Jitter > 0 {
		policy.Jitter = cfg.Jitter
	}
	return policy
}
