package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"Augur_1.0/backend/go/internal/embedding"
	"Augur_1.0/backend/go/internal/marketdata"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/internal/prediction_service/store"
	"Augur_1.0/backend/go/internal/reasoning"
	"Augur_1.0/backend/go/pkg/logger"
)

// ArticleSource yields recently published articles.
type ArticleSource interface {
	FetchRecent(ctx context.Context, since time.Time) ([]models.Article, error)
}

// Embedder produces the per-model vector map for one text.
type Embedder interface {
	EmbedAll(ctx context.Context, text string) (map[string][]float32, error)
}

// CandidateFunnel narrows the catalog to candidates for one article.
type CandidateFunnel interface {
	Candidates(ctx context.Context, articleVectors map[string][]float32) ([]models.Candidate, error)
}

// Reasoner runs one prompt to completion.
type Reasoner interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options carries the pipeline's tunables.
type Options struct {
	CycleInterval time.Duration // Pause between successful cycles.
	BackoffBase   time.Duration // First pause after a failed cycle.
	BackoffMax    time.Duration // Backoff ceiling.
	FetchWindow   time.Duration // How far back to fetch articles.
	ModelLabel    string        // Recorded on each prediction entry.
}

// Pipeline is the ingest loop: fetch recent articles, drop title
// duplicates, embed, funnel to candidates, reason over them, and
// persist one prediction record per productive article.
type Pipeline struct {
	articles ArticleSource
	store    store.PredictionStore
	embedder Embedder
	funnel   CandidateFunnel
	prompts  *reasoning.PromptSet
	parser   reasoning.Parser
	reasoner Reasoner
	market   marketdata.Provider
	opts     Options
	log      *logger.Logger
}

// NewPipeline wires the pipeline together.
func NewPipeline(
	articles ArticleSource,
	st store.PredictionStore,
	embedder Embedder,
	funnel CandidateFunnel,
	prompts *reasoning.PromptSet,
	parser reasoning.Parser,
	reasoner Reasoner,
	market marketdata.Provider,
	opts Options,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		articles: articles,
		store:    st,
		embedder: embedder,
		funnel:   funnel,
		prompts:  prompts,
		parser:   parser,
		reasoner: reasoner,
		market:   market,
		opts:     opts,
		log:      log,
	}
}

// Run executes cycles until ctx is canceled. A failed cycle backs the
// whole loop off with doubling pauses up to BackoffMax; the first
// success resets the backoff.
func (p *Pipeline) Run(ctx context.Context) {
	backoff := p.opts.BackoffBase
	for {
		pause := p.opts.CycleInterval
		if err := p.RunCycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			p.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "CycleError"}).Error("ingest cycle failed")
			pause = backoff
			backoff *= 2
			if backoff > p.opts.BackoffMax {
				backoff = p.opts.BackoffMax
			}
		} else {
			backoff = p.opts.BackoffBase
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(pause):
		}
	}
}

// RunCycle processes one batch of recent articles. Per-article
// failures are logged and skipped; only batch-level failures (article
// fetch, title load) fail the cycle.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	log := p.log.WithTrace(uuid.NewString())

	since := time.Now().UTC().Add(-p.opts.FetchWindow)
	articles, err := p.articles.FetchRecent(ctx, since)
	if err != nil {
		return fmt.Errorf("fetch articles: %w", err)
	}

	seen, err := p.store.ExistingTitles(ctx)
	if err != nil {
		return fmt.Errorf("load existing titles: %w", err)
	}

	var processed, skipped int
	for i := range articles {
		article := &articles[i]
		if seen[article.Title] {
			skipped++
			continue
		}
		// Claim the title up front so a duplicate later in the same
		// batch is skipped even if this article produces no record.
		seen[article.Title] = true

		inserted, err := p.processArticle(ctx, article, log)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "ArticleError"}).
				WithPayload(map[string]interface{}{"title": article.Title}).
				Warn("article processing failed, skipping")
			continue
		}
		if inserted {
			processed++
		}
	}

	log.WithPayload(map[string]interface{}{
		"fetched":   len(articles),
		"inserted":  processed,
		"duplicate": skipped,
	}).Info("ingest cycle complete")
	return nil
}

// processArticle runs one article through the full funnel and
// reasoning sequence. Returns false without error when the article
// carries no usable signal.
func (p *Pipeline) processArticle(ctx context.Context, article *models.Article, log *logger.Logger) (bool, error) {
	vectors, err := p.embedder.EmbedAll(ctx, article.Content)
	if err != nil {
		if errors.Is(err, embedding.ErrEmptyInput) {
			return false, nil
		}
		return false, fmt.Errorf("embed article: %w", err)
	}

	candidates, err := p.funnel.Candidates(ctx, vectors)
	if err != nil {
		return false, fmt.Errorf("funnel candidates: %w", err)
	}
	if len(candidates) == 0 {
		return false, nil
	}

	// First call: which candidates does the news plausibly move.
	reply, err := p.reasoner.Complete(ctx, p.prompts.TickerSelect(article.Content, candidates))
	if err != nil {
		return false, fmt.Errorf("ticker selection: %w", err)
	}
	tickers := p.parser.Tickers(reply)
	effect := p.parser.Effect(reply)
	if len(tickers) == 0 {
		return false, nil
	}

	// Second call, per ticker: anchor at the current price and ask
	// for the forecast.
	var predictions []models.TickerPrediction
	for _, ticker := range tickers {
		price, err := p.market.CurrentPrice(ctx, ticker)
		if err != nil {
			log.WithPayload(map[string]interface{}{"ticker": ticker, "reason": err.Error()}).
				Warn("no current price, skipping ticker")
			continue
		}

		analysisReply, err := p.reasoner.Complete(ctx, p.prompts.PriceAnalysis(article.Content, ticker, price))
		if err != nil {
			log.WithPayload(map[string]interface{}{"ticker": ticker, "reason": err.Error()}).
				Warn("price analysis failed, skipping ticker")
			continue
		}

		for _, parsed := range p.parser.Predictions(analysisReply) {
			change, err := reasoning.PercentChange(parsed.Price1Hr, parsed.Price24Hrs)
			if err != nil {
				log.WithPayload(map[string]interface{}{"ticker": parsed.Ticker}).
					Warn("zero base price in forecast, dropping entry")
				continue
			}
			predictions = append(predictions, models.TickerPrediction{
				Model:             p.opts.ModelLabel,
				Ticker:            parsed.Ticker,
				PredictedPrice1H:  parsed.Price1Hr,
				PredictedPrice4H:  parsed.Price4Hrs,
				PredictedPrice24H: parsed.Price24Hrs,
				Analysis:          parsed.Analysis,
				Trend:             parsed.Trend,
				PercentChange:     change,
			})
		}
	}
	if len(predictions) == 0 {
		return false, nil
	}

	id := uuid.NewString()
	rec := &models.PredictionRecord{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Content:   article.Content,
		Category:  article.Category,
		Effect:    effect,
		Freshness: models.FreshnessFresh,
		Sources: []models.Source{{
			ID:          id,
			Link:        article.Link,
			Publication: article.Publication,
			Title:       article.Title,
		}},
		Embeddings:  vectors,
		Predictions: predictions,
	}
	if err := p.store.Insert(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}
