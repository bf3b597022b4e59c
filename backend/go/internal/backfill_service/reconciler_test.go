package backfill_service

import (
	"context"
	"testing"
	"time"

	"Augur_1.0/backend/go/internal/marketdata"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/internal/prediction_service/store"
	"Augur_1.0/backend/go/pkg/logger"
)

type fakeWarehouse struct {
	live        map[string]*models.PredictionRecord
	staged      map[string]*models.PredictionRecord
	rejectMerge bool
	dropped     bool
}

func newFakeWarehouse(records ...*models.PredictionRecord) *fakeWarehouse {
	w := &fakeWarehouse{
		live:   map[string]*models.PredictionRecord{},
		staged: map[string]*models.PredictionRecord{},
	}
	for _, r := range records {
		w.live[r.ID] = r
	}
	return w
}

func (w *fakeWarehouse) FetchBackfillable(ctx context.Context, olderThan time.Time, limit int) ([]models.PredictionRecord, error) {
	var out []models.PredictionRecord
	for _, r := range w.live {
		if r.Freshness.Terminal() || !r.CreatedAt.Before(olderThan) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (w *fakeWarehouse) Get(ctx context.Context, id string) (*models.PredictionRecord, error) {
	rec := *w.live[id]
	return &rec, nil
}

func (w *fakeWarehouse) Stage(ctx context.Context, rec *models.PredictionRecord) error {
	copied := *rec
	w.staged[rec.ID] = &copied
	return nil
}

func (w *fakeWarehouse) MergeStaged(ctx context.Context, id string, bufferBefore time.Time) error {
	if w.rejectMerge {
		return store.ErrNotMerged
	}
	staged := w.staged[id]
	live, ok := w.live[id]
	if !ok || live.Freshness.Terminal() || !live.CreatedAt.Before(bufferBefore) {
		return store.ErrNotMerged
	}
	copied := *staged
	w.live[id] = &copied
	return nil
}

func (w *fakeWarehouse) DeleteStaged(ctx context.Context, id string) error {
	delete(w.staged, id)
	return nil
}

func (w *fakeWarehouse) DropStaging(ctx context.Context) error {
	w.staged = map[string]*models.PredictionRecord{}
	w.dropped = true
	return nil
}

// hourlyMarket returns n hourly closes starting one hour after start.
type hourlyMarket struct {
	n     int
	base  float64
	calls int
}

func (m *hourlyMarket) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return m.base, nil
}

func (m *hourlyMarket) PriceHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]marketdata.PricePoint, error) {
	m.calls++
	if m.n == 0 {
		return nil, marketdata.ErrNoData
	}
	points := make([]marketdata.PricePoint, m.n)
	for i := range points {
		points[i] = marketdata.PricePoint{
			Time:  start.Add(time.Duration(i+1) * time.Hour),
			Price: m.base + float64(i),
		}
	}
	return points, nil
}

func testRecord(id string, age time.Duration, now time.Time) *models.PredictionRecord {
	return &models.PredictionRecord{
		ID:        id,
		CreatedAt: now.Add(-age),
		Freshness: models.FreshnessFresh,
		Predictions: []models.TickerPrediction{
			{Ticker: "AAPL", PredictedPrice1H: 100, PredictedPrice24H: 110},
		},
	}
}

func testReconciler(w *fakeWarehouse, m marketdata.Provider, now time.Time) *Reconciler {
	r := NewReconciler(w, m, Options{
		MinAge:       90 * time.Minute,
		BufferWindow: 3 * time.Hour,
		BatchLimit:   10,
	}, logger.New("test", ""))
	r.now = func() time.Time { return now }
	return r
}

func TestRunCyclePartialBackfill(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord("rec-1", 4*time.Hour, now)
	w := newFakeWarehouse(rec)
	r := testReconciler(w, &hourlyMarket{n: 4, base: 100}, now)

	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := w.live["rec-1"]
	if got.Freshness != models.FreshnessPartial {
		t.Fatalf("freshness: %s", got.Freshness)
	}
	pred := got.Predictions[0]
	if pred.ActualPrice1H == nil || *pred.ActualPrice1H != 100 {
		t.Fatalf("1h actual: %v", pred.ActualPrice1H)
	}
	if pred.ActualPrice2H == nil || *pred.ActualPrice2H != 101 {
		t.Fatalf("2h actual: %v", pred.ActualPrice2H)
	}
	if pred.ActualPrice3H == nil || *pred.ActualPrice3H != 102 {
		t.Fatalf("3h actual: %v", pred.ActualPrice3H)
	}
	// 5h has not elapsed yet even though a 4th point exists.
	if pred.ActualPrice5H != nil {
		t.Fatalf("5h actual must stay empty: %v", *pred.ActualPrice5H)
	}
	if pred.ActualPrice24H != nil {
		t.Fatal("24h actual must stay empty")
	}
	if len(w.staged) != 0 {
		t.Fatal("staged copy must be deleted after merge")
	}
	if !w.dropped {
		t.Fatal("staging must be cleared at cycle end")
	}
}

func TestRunCycleFullBackfill(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	rec := testRecord("rec-1", 26*time.Hour, now)
	w := newFakeWarehouse(rec)
	r := testReconciler(w, &hourlyMarket{n: 24, base: 100}, now)

	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := w.live["rec-1"]
	if got.Freshness != models.FreshnessFull {
		t.Fatalf("freshness: %s", got.Freshness)
	}
	pred := got.Predictions[0]
	if !pred.Backfilled() {
		t.Fatalf("all actuals must be filled: %+v", pred)
	}
	if *pred.ActualPrice10H != 109 || *pred.ActualPrice24H != 123 {
		t.Fatalf("10h=%v 24h=%v", *pred.ActualPrice10H, *pred.ActualPrice24H)
	}
}

func TestRunCycleRespectsBufferWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord("rec-1", 2*time.Hour, now) // old enough to fetch, inside buffer
	w := newFakeWarehouse(rec)
	market := &hourlyMarket{n: 2, base: 100}
	r := testReconciler(w, market, now)

	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	if market.calls != 0 {
		t.Fatal("buffered record must not be touched")
	}
	if w.live["rec-1"].Freshness != models.FreshnessFresh {
		t.Fatal("buffered record must stay fresh")
	}
}

func TestRunCycleMergeGuardRejection(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord("rec-1", 4*time.Hour, now)
	w := newFakeWarehouse(rec)
	w.rejectMerge = true
	r := testReconciler(w, &hourlyMarket{n: 4, base: 100}, now)

	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	if w.live["rec-1"].Freshness != models.FreshnessFresh {
		t.Fatal("rejected merge must leave live record untouched")
	}
	if len(w.staged) != 0 {
		t.Fatal("rejected staged copy must be deleted")
	}
}

func TestRunCycleNoDataNoChange(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord("rec-1", 4*time.Hour, now)
	w := newFakeWarehouse(rec)
	r := testReconciler(w, &hourlyMarket{n: 0}, now)

	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	if w.live["rec-1"].Freshness != models.FreshnessFresh {
		t.Fatal("record without data must stay fresh")
	}
	if len(w.staged) != 0 {
		t.Fatal("nothing should be staged without changes")
	}
}

func TestRunCycleSkipsTerminalRecords(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord("rec-1", 48*time.Hour, now)
	rec.Freshness = models.FreshnessFull
	w := newFakeWarehouse(rec)
	market := &hourlyMarket{n: 24, base: 100}
	r := testReconciler(w, market, now)

	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if market.calls != 0 {
		t.Fatal("terminal record must not be processed")
	}
}
