package ticker_embedding_service

import (
	"context"
	"errors"
	"testing"

	"Augur_1.0/backend/go/internal/embedding"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/pkg/logger"
)

type fakeCatalog struct {
	rows    map[string]*models.Ticker
	updates int
}

func (f *fakeCatalog) Missing(ctx context.Context, modelNames []string) ([]models.Ticker, error) {
	var out []models.Ticker
	for _, row := range f.rows {
		for _, name := range modelNames {
			if _, ok := row.Embeddings[name]; !ok {
				out = append(out, *row)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeCatalog) Get(ctx context.Context, symbol string) (*models.Ticker, error) {
	row := *f.rows[symbol]
	return &row, nil
}

func (f *fakeCatalog) UpdateVectors(ctx context.Context, symbol string, vectors map[string][]float32) error {
	f.updates++
	row := f.rows[symbol]
	if row.Embeddings == nil {
		row.Embeddings = map[string][]float32{}
	}
	for name, vec := range vectors {
		row.Embeddings[name] = vec
	}
	return nil
}

type fakeEmbedder struct {
	names    []string
	failures int
	calls    int
}

func (f *fakeEmbedder) ModelNames() []string { return f.names }

func (f *fakeEmbedder) EmbedWith(ctx context.Context, name, text string) ([]float32, error) {
	f.calls++
	if text == "" {
		return nil, embedding.ErrEmptyInput
	}
	if f.calls <= f.failures {
		return nil, errors.New("embed failed")
	}
	return []float32{1, 2}, nil
}

func TestRunFillsMissingVectors(t *testing.T) {
	catalog := &fakeCatalog{rows: map[string]*models.Ticker{
		"AAPL": {Symbol: "AAPL", Summary: "designs phones", Embeddings: map[string][]float32{"m1": {1}}},
		"MSFT": {Symbol: "MSFT", Summary: "sells software"},
	}}
	r := NewRefresher(catalog, &fakeEmbedder{names: []string{"m1", "m2"}}, logger.New("test", ""))

	failed, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if failed != 0 {
		t.Fatalf("failed rows: %d", failed)
	}

	for _, symbol := range []string{"AAPL", "MSFT"} {
		row := catalog.rows[symbol]
		for _, name := range []string{"m1", "m2"} {
			if _, ok := row.Embeddings[name]; !ok {
				t.Fatalf("%s missing %s vector", symbol, name)
			}
		}
	}
}

func TestRunRetriesRow(t *testing.T) {
	catalog := &fakeCatalog{rows: map[string]*models.Ticker{
		"MSFT": {Symbol: "MSFT", Summary: "sells software"},
	}}
	// First attempt fails, second succeeds.
	embedder := &fakeEmbedder{names: []string{"m1"}, failures: 1}
	r := NewRefresher(catalog, embedder, logger.New("test", ""))

	failed, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if failed != 0 {
		t.Fatalf("failed rows: %d", failed)
	}
	if _, ok := catalog.rows["MSFT"].Embeddings["m1"]; !ok {
		t.Fatal("vector not written after retry")
	}
}

func TestRunReportsEmptySummary(t *testing.T) {
	catalog := &fakeCatalog{rows: map[string]*models.Ticker{
		"EMPT": {Symbol: "EMPT"},
	}}
	r := NewRefresher(catalog, &fakeEmbedder{names: []string{"m1"}}, logger.New("test", ""))

	failed, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if failed != 1 {
		t.Fatalf("want 1 failed row, got %d", failed)
	}
	if catalog.updates != 0 {
		t.Fatal("no vectors should be written for an empty summary")
	}
}
