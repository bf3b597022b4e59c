package notification_service

import (
	"context"
	"testing"
	"time"

	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/pkg/logger"
)

func record(id string, preds ...models.TickerPrediction) models.PredictionRecord {
	return models.PredictionRecord{
		ID:          id,
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Sources:     []models.Source{{ID: id, Title: "headline " + id}},
		Predictions: preds,
	}
}

func TestSelectPicksHighLikelihoodTrends(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []models.PredictionRecord{
		record("r1",
			models.TickerPrediction{Ticker: "AAPL", Trend: "High likelihood of upward trend", PercentChange: 4.2},
			models.TickerPrediction{Ticker: "MSFT", Trend: "sideways"},
		),
		record("r2",
			models.TickerPrediction{Ticker: "GOOG", Trend: "high likelihood of downward trend"},
		),
	}

	alerts := Select(records, now)
	if len(alerts) != 2 {
		t.Fatalf("want 2 alerts, got %v", alerts)
	}
	if alerts[0].Ticker != "AAPL" || alerts[0].RecordID != "r1" {
		t.Fatalf("first alert: %+v", alerts[0])
	}
	if alerts[0].Title != "headline r1" {
		t.Fatalf("title: %q", alerts[0].Title)
	}
	if alerts[1].Ticker != "GOOG" {
		t.Fatalf("second alert: %+v", alerts[1])
	}
}

func TestSelectDedupsRecordTickerPairs(t *testing.T) {
	now := time.Now().UTC()
	records := []models.PredictionRecord{
		record("r1",
			models.TickerPrediction{Ticker: "AAPL", Trend: "high likelihood of upward trend"},
			models.TickerPrediction{Ticker: "AAPL", Trend: "high likelihood of upward trend"},
		),
	}

	alerts := Select(records, now)
	if len(alerts) != 1 {
		t.Fatalf("want 1 alert, got %v", alerts)
	}
}

type memorySource struct {
	records []models.PredictionRecord
}

func (m *memorySource) Recent(ctx context.Context, since time.Time, limit int) ([]models.PredictionRecord, error) {
	return m.records, nil
}

type memorySeen struct {
	keys map[string]bool
}

func (m *memorySeen) Contains(ctx context.Context, key string) (bool, error) {
	return m.keys[key], nil
}

func (m *memorySeen) Add(ctx context.Context, key string) error {
	m.keys[key] = true
	return nil
}

type capturePublisher struct {
	alerts []models.Alert
}

func (c *capturePublisher) Publish(ctx context.Context, alert *models.Alert) error {
	c.alerts = append(c.alerts, *alert)
	return nil
}

func TestRunCycleAlertsOnce(t *testing.T) {
	src := &memorySource{records: []models.PredictionRecord{
		record("r1", models.TickerPrediction{Ticker: "AAPL", Trend: "high likelihood of upward trend"}),
	}}
	seen := &memorySeen{keys: map[string]bool{}}
	pub := &capturePublisher{}
	svc := NewService(src, seen, pub, nil, nil, Options{Lookback: 7 * time.Hour}, logger.New("test", ""))

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(pub.alerts) != 1 {
		t.Fatalf("want 1 alert, got %d", len(pub.alerts))
	}

	// Second cycle over the same records must stay silent.
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(pub.alerts) != 1 {
		t.Fatalf("alert re-sent: got %d", len(pub.alerts))
	}
}
