package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"Augur_1.0/backend/go/internal/models"
)

// ErrNotMerged is returned when a staged record fails the merge guard:
// the live record is already terminal, newer than the buffer boundary,
// or gone.
var ErrNotMerged = errors.New("store: staged record not merged")

// PredictionStore is the persistence port for prediction records.
// Backfill updates never write the live collection directly; they go
// through the Stage / MergeStaged / DeleteStaged protocol so a crash
// mid-update can never leave a half-written record.
type PredictionStore interface {
	Insert(ctx context.Context, rec *models.PredictionRecord) error
	Get(ctx context.Context, id string) (*models.PredictionRecord, error)
	ExistingTitles(ctx context.Context) (map[string]bool, error)
	Recent(ctx context.Context, since time.Time, limit int) ([]models.PredictionRecord, error)
	FetchBackfillable(ctx context.Context, olderThan time.Time, limit int) ([]models.PredictionRecord, error)
	Stage(ctx context.Context, rec *models.PredictionRecord) error
	MergeStaged(ctx context.Context, id string, bufferBefore time.Time) error
	DeleteStaged(ctx context.Context, id string) error
	DropStaging(ctx context.Context) error
}

// MongoPredictionStore implements PredictionStore on two collections:
// the live prediction collection and a staging collection for the
// merge protocol.
type MongoPredictionStore struct {
	live    *mongo.Collection
	staging *mongo.Collection
}

// NewMongoPredictionStore creates the store.
func NewMongoPredictionStore(live, staging *mongo.Collection) *MongoPredictionStore {
	return &MongoPredictionStore{live: live, staging: staging}
}

// Insert writes a new record to the live collection.
func (s *MongoPredictionStore) Insert(ctx context.Context, rec *models.PredictionRecord) error {
	if _, err := s.live.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert prediction %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns one record from the live collection.
func (s *MongoPredictionStore) Get(ctx context.Context, id string) (*models.PredictionRecord, error) {
	var rec models.PredictionRecord
	if err := s.live.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ExistingTitles returns every source title already consumed by a
// record. Titles are the dedup key for incoming articles.
func (s *MongoPredictionStore) ExistingTitles(ctx context.Context) (map[string]bool, error) {
	values, err := s.live.Distinct(ctx, "sources.title", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct source titles: %w", err)
	}
	titles := make(map[string]bool, len(values))
	for _, v := range values {
		if title, ok := v.(string); ok {
			titles[title] = true
		}
	}
	return titles, nil
}

// Recent returns records created at or after since, newest first.
func (s *MongoPredictionStore) Recent(ctx context.Context, since time.Time, limit int) ([]models.PredictionRecord, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.live.Find(ctx, bson.M{"created_at": bson.M{"$gte": since}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find recent predictions: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.PredictionRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchBackfillable returns non-terminal records created before
// olderThan, oldest first.
func (s *MongoPredictionStore) FetchBackfillable(ctx context.Context, olderThan time.Time, limit int) ([]models.PredictionRecord, error) {
	filter := bson.M{
		"freshness":  bson.M{"$ne": models.FreshnessFull},
		"created_at": bson.M{"$lt": olderThan},
	}
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.live.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find backfillable predictions: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.PredictionRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stage writes the updated copy of a record to the staging collection,
// stamping it so stale staged rows are identifiable.
func (s *MongoPredictionStore) Stage(ctx context.Context, rec *models.PredictionRecord) error {
	staged := *rec
	staged.StagedAt = time.Now().UTC()
	_, err := s.staging.ReplaceOne(ctx, bson.M{"_id": rec.ID}, &staged, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("stage prediction %s: %w", rec.ID, err)
	}
	return nil
}

// MergeStaged replaces the live record with its staged copy. The guard
// filter only matches a live record that still has the same id, is not
// terminal, and was created before bufferBefore; anything else returns
// ErrNotMerged and leaves the live collection untouched.
func (s *MongoPredictionStore) MergeStaged(ctx context.Context, id string, bufferBefore time.Time) error {
	var staged models.PredictionRecord
	if err := s.staging.FindOne(ctx, bson.M{"_id": id}).Decode(&staged); err != nil {
		return fmt.Errorf("read staged prediction %s: %w", id, err)
	}
	staged.StagedAt = time.Time{}

	filter := bson.M{
		"_id":        id,
		"freshness":  bson.M{"$ne": models.FreshnessFull},
		"created_at": bson.M{"$lt": bufferBefore},
	}
	res, err := s.live.ReplaceOne(ctx, filter, &staged)
	if err != nil {
		return fmt.Errorf("merge staged prediction %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotMerged, id)
	}
	return nil
}

// DeleteStaged removes one record from the staging collection.
func (s *MongoPredictionStore) DeleteStaged(ctx context.Context, id string) error {
	if _, err := s.staging.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete staged prediction %s: %w", id, err)
	}
	return nil
}

// DropStaging clears the staging collection. Called at the end of
// every backfill cycle regardless of outcome.
func (s *MongoPredictionStore) DropStaging(ctx context.Context) error {
	if _, err := s.staging.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("drop staging: %w", err)
	}
	return nil
}
