package main

import (
	"Augur_1.0/backend/go/internal/config"
	"Augur_1.0/backend/go/internal/database/mongo"
	"Augur_1.0/backend/go/internal/database/redis"
	"Augur_1.0/backend/go/internal/embedding"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/internal/ticker_embedding_service"
	"Augur_1.0/backend/go/internal/tickers"
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

// Run-to-completion job: fill in missing catalog vectors and exit.
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

	serviceLogger := logger.New("TickerEmbeddingService", "")

	// Connect to MongoDB using the singleton GetClient
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MongoDB")
	}
	db := mongoClient.Database(cfg.Databases.MongoDB.Database)
	serviceLogger.Info("Successfully connected to MongoDB")

	// Redis invalidates the cached primary vectors after updates
	redisClient, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Redis")
	}

	exec := retry.New(retry.DefaultPolicy(), retry.DefaultClassifier)
	members := make([]embedding.Member, 0, len(cfg.Embedding.Models))
	for _, m := range cfg.Embedding.Models {
		model, err := embedding.NewEmdModel(m.Provider, m.Model, m.APIKey, m.BaseURL)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create embedding model")
		}
		members = append(members, embedding.Member{Name: m.Name, Model: model, MaxChars: m.MaxChars})
	}
	ensemble := embedding.NewEnsemble(members, exec)

	catalog := tickers.NewStore(
		db.Collection(cfg.Databases.Collections.Tickers),
		redisClient,
		ensemble.Primary(),
		config.Duration(cfg.Embedding.CacheTTL, time.Hour),
	)

	// Cancel the run on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	refresher := ticker_embedding_service.NewRefresher(catalog, ensemble, serviceLogger)
	failed, err := refresher.Run(ctx)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Catalog refresh aborted")
	}

	if err := redis.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Redis connection")
	}
	if err := mongo.Close(context.Background()); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
	}

	if failed > 0 {
		serviceLogger.Warn("Catalog refresh finished with unrepaired rows")
		os.Exit(1)
	}
	serviceLogger.Info("Catalog refresh finished")
}
