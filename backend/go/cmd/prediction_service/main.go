package main

import (
	"Augur_1.0/backend/go/internal/config"
	"Augur_1.0/backend/go/internal/database/mongo"
	"Augur_1.0/backend/go/internal/database/redis"
	"Augur_1.0/backend/go/internal/embedding"
	"Augur_1.0/backend/go/internal/funnel"
	"Augur_1.0/backend/go/internal/llm"
	"Augur_1.0/backend/go/internal/marketdata"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/internal/prediction_service/api"
	"Augur_1.0/backend/go/internal/prediction_service/service"
	"Augur_1.0/backend/go/internal/prediction_service/store"
	"Augur_1.0/backend/go/internal/reasoning"
	"Augur_1.0/backend/go/internal/tickers"
	"Augur_1.0/backend/go/pkg/logger"
	"Augur_1.0/backend/go/pkg/retry"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
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

	// Create a single base logger for the service
	serviceLogger := logger.New("PredictionService", "")

	// Connect to MongoDB using the singleton GetClient
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MongoDB")
	}
	db := mongoClient.Database(cfg.Databases.MongoDB.Database)
	serviceLogger.Info("Successfully connected to MongoDB")

	// Connect to Redis for the ticker vector cache
	redisClient, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Redis")
	}

	// Shared retry executor for all outbound calls
	exec := retry.New(retryPolicy(cfg.Retry), retry.DefaultClassifier)

	// Build the embedding ensemble from configuration
	ensemble, err := buildEnsemble(cfg.Embedding, exec)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to build embedding ensemble")
	}

	// Ticker catalog with cached primary vectors
	collections := cfg.Databases.Collections
	tickerStore := tickers.NewStore(
		db.Collection(collections.Tickers),
		redisClient,
		ensemble.Primary(),
		config.Duration(cfg.Embedding.CacheTTL, time.Hour),
	)

	stage1 := cfg.Pipeline.Stage1TopK
	if stage1 <= 0 {
		stage1 = 100
	}
	stage2 := cfg.Pipeline.Stage2TopK
	if stage2 <= 0 {
		stage2 = 3
	}
	candidateFunnel, err := funnel.New(tickerStore, ensemble.ModelNames(), stage1, stage2)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to build candidate funnel")
	}

	// Reasoning stack: prompts, LLM client, grammar parser
	prompts, err := reasoning.LoadPrompts(cfg.Pipeline.PromptDir)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to load prompt templates")
	}
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create LLM client")
	}
	reasoner := reasoning.NewClient(llmClient, exec, config.Duration(cfg.Pipeline.ReasoningTimeout, 60*time.Second))

	// Market data goes through the same executor so transient quote
	// failures are retried instead of dropping the article.
	market := marketdata.NewRetryingProvider(marketdata.NewYahooClient(cfg.MarketData), exec)

	predictionStore := store.NewMongoPredictionStore(
		db.Collection(collections.Predictions),
		db.Collection(collections.Staging),
	)
	articleStore := store.NewArticleStore(db.Collection(collections.Articles))

	pipeline := service.NewPipeline(
		articleStore,
		predictionStore,
		ensemble,
		candidateFunnel,
		prompts,
		reasoning.NewParser(),
		reasoner,
		market,
		service.Options{
			CycleInterval: config.Duration(cfg.Pipeline.CycleInterval, 30*time.Minute),
			BackoffBase:   config.Duration(cfg.Pipeline.CycleBackoffBase, 5*time.Second),
			BackoffMax:    config.Duration(cfg.Pipeline.CycleBackoffMax, 5*time.Minute),
			FetchWindow:   time.Duration(cfg.Pipeline.FetchWindowHours) * time.Hour,
			ModelLabel:    reasoningModelLabel(cfg.LLM),
		},
		serviceLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go pipeline.Run(ctx)
	serviceLogger.Info("Ingest pipeline started")

	// Setup HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	apiHandler := api.NewAPI(predictionStore, tickerStore, ensemble, cfg.Pipeline.RecommendTopN, serviceLogger)
	api.RegisterRoutes(router, apiHandler)

	srv := &http.Server{
		Addr:    cfg.Pipeline.ServerAddress,
		Handler: router,
	}

	// Start server
	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("HTTP server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Server forced to shutdown")
	}

	cancel()
	if err := redis.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Redis connection")
	}
	if err := mongo.Close(context.Background()); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
	}

	serviceLogger.Info("Server gracefully stopped")
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

// buildEnsemble instantiates every configured embedding model.
func buildEnsemble(cfg config.EmbeddingConfig, exec *retry.Executor) (*embedding.Ensemble, error) {
	members := make([]embedding.Member, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		model, err := embedding.NewEmdModel(m.Provider, m.Model, m.APIKey, m.BaseURL)
		if err != nil {
			return nil, err
		}
		members = append(members, embedding.Member{
			Name:     m.Name,
			Model:    model,
			MaxChars: m.MaxChars,
		})
	}
	return embedding.NewEnsemble(members, exec), nil
}

// reasoningModelLabel is the model name recorded on prediction entries.
func reasoningModelLabel(cfg config.LLMConfig) string {
	if cfg.Provider == "openai" {
		return cfg.OpenAI.Model
	}
	return cfg.Gemini.Model
}
