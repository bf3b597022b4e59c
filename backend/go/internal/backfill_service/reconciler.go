package backfill_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"Augur_1.0/backend/go/internal/marketdata"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/internal/prediction_service/store"
	"Augur_1.0/backend/go/pkg/logger"
)

// horizons are the hours after record creation at which actual prices
// are captured, paired with the hourly-series index holding each one.
var horizons = []struct {
	hours int
	index int
}{
	{1, 0},
	{2, 1},
	{3, 2},
	{5, 4},
	{10, 9},
	{24, 23},
}

// Warehouse is the slice of the prediction store the reconciler uses.
type Warehouse interface {
	FetchBackfillable(ctx context.Context, olderThan time.Time, limit int) ([]models.PredictionRecord, error)
	Get(ctx context.Context, id string) (*models.PredictionRecord, error)
	Stage(ctx context.Context, rec *models.PredictionRecord) error
	MergeStaged(ctx context.Context, id string, bufferBefore time.Time) error
	DeleteStaged(ctx context.Context, id string) error
	DropStaging(ctx context.Context) error
}

// Options carries the reconciler's tunables.
type Options struct {
	Interval     time.Duration // Pause between cycles.
	MinAge       time.Duration // Youngest record age eligible for backfill.
	BufferWindow time.Duration // Records younger than this never merge.
	BatchLimit   int           // Max records per cycle.
}

// Reconciler fills in actual prices on aged prediction records. Every
// update goes stage -> guarded merge -> verify -> delete staged, one
// record at a time, so the live collection only ever sees complete
// replacement documents.
type Reconciler struct {
	store  Warehouse
	market marketdata.Provider
	opts   Options
	log    *logger.Logger
	now    func() time.Time
}

// NewReconciler wires the reconciler.
func NewReconciler(st Warehouse, market marketdata.Provider, opts Options, log *logger.Logger) *Reconciler {
	return &Reconciler{
		store:  st,
		market: market,
		opts:   opts,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run executes cycles until ctx is canceled.
func (r *Reconciler) Run(ctx context.Context) {
	for {
		if err := r.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "CycleError"}).Error("backfill cycle failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.opts.Interval):
		}
	}
}

// RunCycle backfills one batch of eligible records. The staging
// collection is cleared on every exit path.
func (r *Reconciler) RunCycle(ctx context.Context) error {
	log := r.log.WithTrace(uuid.NewString())
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.store.DropStaging(cleanupCtx); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "CleanupError"}).Error("drop staging failed")
		}
	}()

	now := r.now()
	records, err := r.store.FetchBackfillable(ctx, now.Add(-r.opts.MinAge), r.opts.BatchLimit)
	if err != nil {
		return fmt.Errorf("fetch backfillable records: %w", err)
	}

	bufferBefore := now.Add(-r.opts.BufferWindow)
	var merged int
	for i := range records {
		rec := &records[i]
		if !rec.CreatedAt.Before(bufferBefore) {
			// Still inside the buffer window; the merge guard would
			// reject it anyway.
			continue
		}
		if err := r.reconcile(ctx, rec, now, bufferBefore, log); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "RecordError"}).
				WithPayload(map[string]interface{}{"record": rec.ID}).
				Warn("record backfill failed, skipping")
			continue
		}
		merged++
	}

	log.WithPayload(map[string]interface{}{
		"eligible": len(records),
		"merged":   merged,
	}).Info("backfill cycle complete")
	return nil
}

// reconcile updates one record and drives it through the merge
// protocol. Records whose actuals did not change are left alone.
func (r *Reconciler) reconcile(ctx context.Context, rec *models.PredictionRecord, now, bufferBefore time.Time, log *logger.Logger) error {
	changed, err := r.fillActuals(ctx, rec, now, log)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	rec.Freshness = rec.NextFreshness()

	if err := r.store.Stage(ctx, rec); err != nil {
		return err
	}
	if err := r.store.MergeStaged(ctx, rec.ID, bufferBefore); err != nil {
		if errors.Is(err, store.ErrNotMerged) {
			log.WithPayload(map[string]interface{}{"record": rec.ID}).
				Warn("merge guard rejected staged record")
			return r.store.DeleteStaged(ctx, rec.ID)
		}
		return err
	}

	// Verify the live record actually took the staged state before
	// discarding the staged copy.
	live, err := r.store.Get(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("verify merged record %s: %w", rec.ID, err)
	}
	if live.Freshness != rec.Freshness {
		return fmt.Errorf("verify merged record %s: freshness %s, want %s", rec.ID, live.Freshness, rec.Freshness)
	}
	return r.store.DeleteStaged(ctx, rec.ID)
}

// fillActuals fetches each predicted ticker's hourly series and fills
// every elapsed, still-empty horizon. Reports whether anything changed.
func (r *Reconciler) fillActuals(ctx context.Context, rec *models.PredictionRecord, now time.Time, log *logger.Logger) (bool, error) {
	changed := false
	for i := range rec.Predictions {
		pred := &rec.Predictions[i]
		if pred.Backfilled() {
			continue
		}

		end := rec.CreatedAt.Add(25 * time.Hour)
		if end.After(now) {
			end = now
		}
		points, err := r.market.PriceHistory(ctx, pred.Ticker, rec.CreatedAt, end, "1h")
		if err != nil {
			if errors.Is(err, marketdata.ErrNoData) {
				log.WithPayload(map[string]interface{}{"ticker": pred.Ticker}).
					Warn("no price history for ticker")
				continue
			}
			return changed, fmt.Errorf("price history for %s: %w", pred.Ticker, err)
		}

		for _, h := range horizons {
			slot := actualSlot(pred, h.hours)
			if *slot != nil {
				continue
			}
			if now.Before(rec.CreatedAt.Add(time.Duration(h.hours) * time.Hour)) {
				continue
			}
			if h.index >= len(points) {
				continue
			}
			price := points[h.index].Price
			*slot = &price
			changed = true
		}
	}
	return changed, nil
}

// actualSlot maps a horizon to its field on the prediction entry.
func actualSlot(pred *models.TickerPrediction, hours int) **float64 {
	switch hours {
	case 1:
		return &pred.ActualPrice1H
	case 2:
		return &pred.ActualPrice2H
	case 3:
		return &pred.ActualPrice3H
	case 5:
		return &pred.ActualPrice5H
	case 10:
		return &pred.ActualPrice10H
	default:
		return &pred.ActualPrice24H
	}
}
