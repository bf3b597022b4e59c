package notification_service

import (
	"strings"
	"time"

	"Augur_1.0/backend/go/internal/models"
)

// trendMarker is the phrase in a prediction's trend label that
// qualifies it for an alert.
const trendMarker = "high likelihood"

// Select picks the alert-worthy predictions out of a batch of records:
// any entry whose trend carries the high-likelihood marker. Each
// record/ticker pair appears at most once in the result.
func Select(records []models.PredictionRecord, now time.Time) []models.Alert {
	var alerts []models.Alert
	seen := make(map[string]bool)
	for i := range records {
		rec := &records[i]
		var title string
		if len(rec.Sources) > 0 {
			title = rec.Sources[0].Title
		}
		for j := range rec.Predictions {
			pred := &rec.Predictions[j]
			if !strings.Contains(strings.ToLower(pred.Trend), trendMarker) {
				continue
			}
			alert := models.Alert{
				RecordID:      rec.ID,
				Ticker:        pred.Ticker,
				Trend:         pred.Trend,
				PercentChange: pred.PercentChange,
				Analysis:      pred.Analysis,
				Title:         title,
				CreatedAt:     rec.CreatedAt,
				NotifiedAt:    now,
			}
			if seen[alert.Key()] {
				continue
			}
			seen[alert.Key()] = true
			alerts = append(alerts, alert)
		}
	}
	return alerts
}
