package service

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Augur_1.0/backend/go/internal/embedding"
	"Augur_1.0/backend/go/internal/marketdata"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/internal/reasoning"
	"Augur_1.0/backend/go/pkg/logger"
)

type fakeArticles struct {
	articles []models.Article
}

func (f *fakeArticles) FetchRecent(ctx context.Context, since time.Time) ([]models.Article, error) {
	return f.articles, nil
}

type fakeStore struct {
	inserted []*models.PredictionRecord
	titles   map[string]bool
}

func (f *fakeStore) Insert(ctx context.Context, rec *models.PredictionRecord) error {
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (*models.PredictionRecord, error) {
	return nil, nil
}

func (f *fakeStore) ExistingTitles(ctx context.Context) (map[string]bool, error) {
	titles := make(map[string]bool, len(f.titles))
	for k, v := range f.titles {
		titles[k] = v
	}
	return titles, nil
}

func (f *fakeStore) Recent(ctx context.Context, since time.Time, limit int) ([]models.PredictionRecord, error) {
	return nil, nil
}

func (f *fakeStore) FetchBackfillable(ctx context.Context, olderThan time.Time, limit int) ([]models.PredictionRecord, error) {
	return nil, nil
}

func (f *fakeStore) Stage(ctx context.Context, rec *models.PredictionRecord) error { return nil }

func (f *fakeStore) MergeStaged(ctx context.Context, id string, bufferBefore time.Time) error {
	return nil
}

func (f *fakeStore) DeleteStaged(ctx context.Context, id string) error { return nil }

func (f *fakeStore) DropStaging(ctx context.Context) error { return nil }

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedAll(ctx context.Context, text string) (map[string][]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, embedding.ErrEmptyInput
	}
	return map[string][]float32{"m1": {1, 0}}, nil
}

type fakeFunnel struct {
	candidates []models.Candidate
}

func (f *fakeFunnel) Candidates(ctx context.Context, vectors map[string][]float32) ([]models.Candidate, error) {
	return f.candidates, nil
}

// fakeReasoner answers the selection prompt first, then the analysis
// prompt for every subsequent call.
type fakeReasoner struct {
	selection string
	analysis  string
	calls     int
}

func (f *fakeReasoner) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.calls == 1 {
		return f.selection, nil
	}
	return f.analysis, nil
}

type fakeMarket struct {
	price float64
}

func (f *fakeMarket) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return f.price, nil
}

func (f *fakeMarket) PriceHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]marketdata.PricePoint, error) {
	return nil, marketdata.ErrNoData
}

func testPrompts(t *testing.T) *reasoning.PromptSet {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"stockprice.txt":     "Article: {{article}} Candidates: {{candidates}}",
		"stock_analysis.txt": "Article: {{article}} Ticker: {{ticker}} Price: {{price}}",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	prompts, err := reasoning.LoadPrompts(dir)
	if err != nil {
		t.Fatal(err)
	}
	return prompts
}

func newTestPipeline(t *testing.T, articles []models.Article, st *fakeStore, reasoner *fakeReasoner) *Pipeline {
	t.Helper()
	return NewPipeline(
		&fakeArticles{articles: articles},
		st,
		fakeEmbedder{},
		&fakeFunnel{candidates: []models.Candidate{{Ticker: "AAPL"}}},
		testPrompts(t),
		reasoning.NewParser(),
		reasoner,
		&fakeMarket{price: 185},
		Options{FetchWindow: 24 * time.Hour, ModelLabel: "gemini-pro"},
		logger.New("test", ""),
	)
}

const selectionReply = `{{TICKER 1: AAPL}} {{effect: "positive"}}`
const analysisReply = `{{TICKER: [AAPL]}}: {{100.0}}, {{102.0}}, {{110.0}}, {{"earnings beat"}}, {{"high likelihood of upward trend"}}`

func TestRunCycleInsertsRecord(t *testing.T) {
	st := &fakeStore{titles: map[string]bool{}}
	p := newTestPipeline(t,
		[]models.Article{{Title: "Apple surges", Content: "Apple reported record revenue.", Link: "http://x", Publication: "Reuters", Category: "tech"}},
		st,
		&fakeReasoner{selection: selectionReply, analysis: analysisReply},
	)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.inserted) != 1 {
		t.Fatalf("want 1 record, got %d", len(st.inserted))
	}

	rec := st.inserted[0]
	if rec.ID == "" {
		t.Fatal("record id not set")
	}
	if rec.Freshness != models.FreshnessFresh {
		t.Fatalf("freshness: %s", rec.Freshness)
	}
	if rec.Effect != "positive" {
		t.Fatalf("effect: %s", rec.Effect)
	}
	if len(rec.Sources) != 1 || rec.Sources[0].Title != "Apple surges" || rec.Sources[0].ID != rec.ID {
		t.Fatalf("sources: %+v", rec.Sources)
	}
	if len(rec.Predictions) != 1 {
		t.Fatalf("predictions: %+v", rec.Predictions)
	}
	pred := rec.Predictions[0]
	if pred.Ticker != "AAPL" || pred.Model != "gemini-pro" {
		t.Fatalf("prediction: %+v", pred)
	}
	if math.Abs(pred.PercentChange-10) > 1e-9 {
		t.Fatalf("percent change: %f", pred.PercentChange)
	}
	if pred.ActualPrice1H != nil {
		t.Fatal("actual prices must start empty")
	}
}

func TestRunCycleSkipsKnownTitle(t *testing.T) {
	st := &fakeStore{titles: map[string]bool{"Old news": true}}
	p := newTestPipeline(t,
		[]models.Article{{Title: "Old news", Content: "already consumed"}},
		st,
		&fakeReasoner{selection: selectionReply, analysis: analysisReply},
	)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.inserted) != 0 {
		t.Fatalf("duplicate title must be skipped, got %d inserts", len(st.inserted))
	}
}

func TestRunCycleSkipsInBatchDuplicate(t *testing.T) {
	st := &fakeStore{titles: map[string]bool{}}
	p := newTestPipeline(t,
		[]models.Article{
			{Title: "Same headline", Content: "first copy"},
			{Title: "Same headline", Content: "second copy"},
		},
		st,
		&fakeReasoner{selection: selectionReply, analysis: analysisReply},
	)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.inserted) != 1 {
		t.Fatalf("want 1 insert, got %d", len(st.inserted))
	}
}

func TestRunCycleSkipsEmptyContent(t *testing.T) {
	st := &fakeStore{titles: map[string]bool{}}
	p := newTestPipeline(t,
		[]models.Article{{Title: "Empty", Content: "   "}},
		st,
		&fakeReasoner{selection: selectionReply, analysis: analysisReply},
	)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.inserted) != 0 {
		t.Fatalf("empty article must not insert, got %d", len(st.inserted))
	}
}

func TestRunCycleNoSignalNoInsert(t *testing.T) {
	st := &fakeStore{titles: map[string]bool{}}
	p := newTestPipeline(t,
		[]models.Article{{Title: "Noise", Content: "nothing actionable"}},
		st,
		&fakeReasoner{selection: "the model declined to pick anything", analysis: analysisReply},
	)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.inserted) != 0 {
		t.Fatalf("no tickers selected must not insert, got %d", len(st.inserted))
	}
}

func TestRunCycleDropsZeroBaseForecast(t *testing.T) {
	st := &fakeStore{titles: map[string]bool{}}
	zeroBase := `{{TICKER: [AAPL]}}: {{0.0}}, {{102.0}}, {{110.0}}, {{"bad anchor"}}, {{"flat"}}`
	p := newTestPipeline(t,
		[]models.Article{{Title: "Zero", Content: "divide carefully"}},
		st,
		&fakeReasoner{selection: selectionReply, analysis: zeroBase},
	)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.inserted) != 0 {
		t.Fatalf("zero-base forecast must be dropped, got %d inserts", len(st.inserted))
	}
}
