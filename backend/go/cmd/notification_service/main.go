package main

import (
	"Augur_1.0/backend/go/internal/config"
	"Augur_1.0/backend/go/internal/database/kafka"
	"Augur_1.0/backend/go/internal/database/mongo"
	"Augur_1.0/backend/go/internal/database/redis"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/internal/notification_service"
	"Augur_1.0/backend/go/internal/prediction_service/store"
	"Augur_1.0/backend/go/pkg/logger"
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

	serviceLogger := logger.New("NotificationService", "")

	// Connect to MongoDB using the singleton GetClient
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MongoDB")
	}
	db := mongoClient.Database(cfg.Databases.MongoDB.Database)
	serviceLogger.Info("Successfully connected to MongoDB")

	// Redis holds the already-alerted set
	redisClient, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Redis")
	}

	// Kafka carries the alert event stream
	kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Kafka")
	}
	publisher := kafka.NewAlertPublisher(kafkaClient)

	collections := cfg.Databases.Collections
	predictionStore := store.NewMongoPredictionStore(
		db.Collection(collections.Predictions),
		db.Collection(collections.Staging),
	)

	var email *notification_service.EmailSink
	if cfg.Notification.Email.Enabled {
		email = notification_service.NewEmailSink(cfg.Notification.Email)
	}
	var sms *notification_service.SMSSink
	if cfg.Notification.SMS.Enabled {
		sms = notification_service.NewSMSSink(cfg.Notification.SMS)
	}

	svc := notification_service.NewService(
		predictionStore,
		notification_service.NewRedisSeenStore(redisClient),
		publisher,
		email,
		sms,
		notification_service.Options{
			Interval: config.Duration(cfg.Notification.Interval, 5*time.Minute),
			Lookback: config.Duration(cfg.Notification.Lookback, 7*time.Hour),
		},
		serviceLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx)
	}()
	serviceLogger.Info("Notification loop started")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down...")

	cancel()
	<-done

	if err := publisher.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka publisher")
	}
	if err := kafkaClient.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka client")
	}
	if err := redis.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Redis connection")
	}
	if err := mongo.Close(context.Background()); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
	}

	serviceLogger.Info("Notification service stopped")
}
