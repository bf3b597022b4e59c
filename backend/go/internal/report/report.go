package report

import (
	"math"
	"sort"

	"Augur_1.0/backend/go/internal/models"
)

// Entry scores one fully backfilled prediction against what the
// market actually did over the same 24 hours.
type Entry struct {
	RecordID          string  `json:"record_id"`
	Ticker            string  `json:"ticker"`
	PredictedChange   float64 `json:"predicted_change"`
	ActualChange      float64 `json:"actual_change"`
	Proximity         float64 `json:"proximity"`          // |predicted - actual|, percentage points.
	WeightedProximity float64 `json:"weighted_proximity"` // Proximity scaled down for large actual moves.
	CorrectDirection  bool    `json:"correct_direction"`
}

// Report is the aggregate accuracy view served by the read API.
type Report struct {
	Entries          []Entry `json:"entries"`
	Scored           int     `json:"scored"`
	CorrectDirection int     `json:"correct_direction"`
	Accuracy         float64 `json:"accuracy"`
}

// Build scores every fully backfilled prediction entry in the given
// records, skipping records the reasoning pass classed as no-effect.
// Entries sort best first: correct-direction calls by ascending
// weighted proximity, then incorrect ones the same way.
func Build(records []models.PredictionRecord) *Report {
	var entries []Entry
	for i := range records {
		rec := &records[i]
		if rec.Effect == "none" {
			continue
		}
		for j := range rec.Predictions {
			pred := &rec.Predictions[j]
			if !pred.Backfilled() || *pred.ActualPrice1H == 0 {
				continue
			}

			actual := (*pred.ActualPrice24H - *pred.ActualPrice1H) / *pred.ActualPrice1H * 100
			proximity := math.Abs(pred.PercentChange - actual)
			entries = append(entries, Entry{
				RecordID:          rec.ID,
				Ticker:            pred.Ticker,
				PredictedChange:   pred.PercentChange,
				ActualChange:      actual,
				Proximity:         proximity,
				WeightedProximity: proximity / (math.Abs(actual) + 1),
				CorrectDirection:  sameSign(pred.PercentChange, actual),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CorrectDirection != entries[j].CorrectDirection {
			return entries[i].CorrectDirection
		}
		return entries[i].WeightedProximity < entries[j].WeightedProximity
	})

	rep := &Report{Entries: entries, Scored: len(entries)}
	for _, e := range entries {
		if e.CorrectDirection {
			rep.CorrectDirection++
		}
	}
	if rep.Scored > 0 {
		rep.Accuracy = float64(rep.CorrectDirection) / float64(rep.Scored)
	}
	return rep
}

func sameSign(a, b float64) bool {
	if a == 0 || b == 0 {
		return a == b
	}
	return (a > 0) == (b > 0)
}
