package ticker_embedding_service

import (
	"context"
	"errors"
	"fmt"

	"Augur_1.0/backend/go/internal/embedding"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/pkg/logger"
)

// Catalog is the slice of the ticker store the refresher uses.
type Catalog interface {
	Missing(ctx context.Context, modelNames []string) ([]models.Ticker, error)
	Get(ctx context.Context, symbol string) (*models.Ticker, error)
	UpdateVectors(ctx context.Context, symbol string, vectors map[string][]float32) error
}

// Embedder produces a vector for one text under one named model.
type Embedder interface {
	ModelNames() []string
	EmbedWith(ctx context.Context, name, text string) ([]float32, error)
}

const rowAttempts = 3

// Refresher fills in missing catalog vectors. It is a run-to-completion
// job: embed the business summary of every ticker that lacks a vector
// for at least one model, write the vectors back, and verify the write
// landed. Each row gets up to three attempts before being reported.
type Refresher struct {
	catalog  Catalog
	embedder Embedder
	log      *logger.Logger
}

// NewRefresher wires the job.
func NewRefresher(catalog Catalog, embedder Embedder, log *logger.Logger) *Refresher {
	return &Refresher{catalog: catalog, embedder: embedder, log: log}
}

// Run processes every ticker with missing vectors and returns the
// number of rows it could not repair.
func (r *Refresher) Run(ctx context.Context) (int, error) {
	names := r.embedder.ModelNames()
	missing, err := r.catalog.Missing(ctx, names)
	if err != nil {
		return 0, fmt.Errorf("find tickers with missing vectors: %w", err)
	}

	var failed int
	for i := range missing {
		ticker := &missing[i]
		if err := r.refreshRow(ctx, ticker, names); err != nil {
			if errors.Is(err, context.Canceled) {
				return failed, err
			}
			failed++
			r.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "RowError"}).
				WithPayload(map[string]interface{}{"ticker": ticker.Symbol}).
				Warn("ticker vector refresh failed")
		}
	}

	r.log.WithPayload(map[string]interface{}{
		"missing": len(missing),
		"failed":  failed,
	}).Info("catalog refresh complete")
	return failed, nil
}

// refreshRow computes and persists the missing vectors for one ticker.
func (r *Refresher) refreshRow(ctx context.Context, ticker *models.Ticker, names []string) error {
	var lastErr error
	for attempt := 1; attempt <= rowAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = r.tryRefresh(ctx, ticker, names); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (r *Refresher) tryRefresh(ctx context.Context, ticker *models.Ticker, names []string) error {
	vectors := make(map[string][]float32)
	for _, name := range names {
		if _, ok := ticker.Embeddings[name]; ok {
			continue
		}
		vec, err := r.embedder.EmbedWith(ctx, name, ticker.Summary)
		if err != nil {
			if errors.Is(err, embedding.ErrEmptyInput) {
				return fmt.Errorf("ticker %s has no business summary", ticker.Symbol)
			}
			return fmt.Errorf("embed summary with %s: %w", name, err)
		}
		vectors[name] = vec
	}
	if len(vectors) == 0 {
		return nil
	}

	if err := r.catalog.UpdateVectors(ctx, ticker.Symbol, vectors); err != nil {
		return err
	}

	// Read the row back: a write that did not land means the catalog
	// would silently keep skipping this ticker in the funnel.
	stored, err := r.catalog.Get(ctx, ticker.Symbol)
	if err != nil {
		return fmt.Errorf("verify vectors for %s: %w", ticker.Symbol, err)
	}
	for name := range vectors {
		if _, ok := stored.Embeddings[name]; !ok {
			return fmt.Errorf("verify vectors for %s: %s vector missing after write", ticker.Symbol, name)
		}
	}
	return nil
}
