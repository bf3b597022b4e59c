package funnel

import (
	"context"
	"fmt"
	"sort"

	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/internal/similarity"
)

// VectorSource supplies ticker catalog vectors for one embedding model.
type VectorSource interface {
	// PrimaryVectors returns the full catalog of vectors for the
	// primary model, keyed by ticker symbol.
	PrimaryVectors(ctx context.Context) (map[string][]float32, error)
	// ModelVectors returns vectors for the named model restricted to
	// the given tickers. Tickers without a stored vector are omitted.
	ModelVectors(ctx context.Context, model string, tickers []string) (map[string][]float32, error)
}

// Funnel narrows the ticker catalog down to a short candidate list in
// two stages. Stage one ranks the whole catalog against the primary
// model's article vector and keeps the top stage1K. Stage two re-ranks
// those survivors once per model and unions each model's top stage2K,
// recording which models voted for each ticker.
type Funnel struct {
	source  VectorSource
	primary string
	models  []string
	stage1K int
	stage2K int
}

// New creates a Funnel. models is the full ordered model list; its
// first element must be the primary model.
func New(source VectorSource, models []string, stage1K, stage2K int) (*Funnel, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("funnel: no models configured")
	}
	return &Funnel{
		source:  source,
		primary: models[0],
		models:  models,
		stage1K: stage1K,
		stage2K: stage2K,
	}, nil
}

// Candidates runs both stages for one article's vectors and returns
// the unioned candidates sorted by descending best score, ties on
// ascending ticker. Missing article vectors for a model skip that
// model's vote rather than failing the article.
func (f *Funnel) Candidates(ctx context.Context, articleVectors map[string][]float32) ([]models.Candidate, error) {
	primaryVec, ok := articleVectors[f.primary]
	if !ok {
		return nil, fmt.Errorf("funnel: article has no vector for primary model %s", f.primary)
	}

	catalog, err := f.source.PrimaryVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("funnel: load primary vectors: %w", err)
	}

	stage1, err := similarity.Rank(primaryVec, catalog, f.stage1K)
	if err != nil {
		return nil, fmt.Errorf("funnel: rank primary catalog: %w", err)
	}
	if len(stage1) == 0 {
		return nil, nil
	}
	survivors := make([]string, len(stage1))
	for i, s := range stage1 {
		survivors[i] = s.Ticker
	}

	// Stage two: each model votes for its own top stage2K among the
	// survivors.
	byTicker := make(map[string]*models.Candidate)
	for _, model := range f.models {
		queryVec, ok := articleVectors[model]
		if !ok {
			continue
		}
		vectors, err := f.source.ModelVectors(ctx, model, survivors)
		if err != nil {
			return nil, fmt.Errorf("funnel: load %s vectors: %w", model, err)
		}
		ranked, err := similarity.Rank(queryVec, vectors, f.stage2K)
		if err != nil {
			return nil, fmt.Errorf("funnel: rank %s survivors: %w", model, err)
		}
		for _, score := range ranked {
			cand, ok := byTicker[score.Ticker]
			if !ok {
				cand = &models.Candidate{
					Ticker: score.Ticker,
					Scores: make(map[string]float64),
				}
				byTicker[score.Ticker] = cand
			}
			cand.Models = append(cand.Models, model)
			cand.Scores[model] = score.Similarity
		}
	}

	out := make([]models.Candidate, 0, len(byTicker))
	for _, cand := range byTicker {
		out = append(out, *cand)
	}
	sort.Slice(out, func(i, j int) bool {
		bi, bj := bestScore(out[i]), bestScore(out[j])
		if bi != bj {
			return bi > bj
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out, nil
}

func bestScore(c models.Candidate) float64 {
	best := -2.0
	for _, s := range c.Scores {
		if s > best {
			best = s
		}
	}
	return best
}
