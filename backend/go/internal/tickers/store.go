package tickers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"Augur_1.0/backend/go/internal/models"
)

const primaryCacheKey = "tickers:vectors:primary"

// Store reads and refreshes the ticker reference catalog. The primary
// model's full vector map is hot on every ingest cycle, so it is
// cached in Redis; per-model stage-two lookups go straight to Mongo
// since they touch at most a hundred documents.
type Store struct {
	coll    *mongo.Collection
	cache   *redis.Client
	primary string
	ttl     time.Duration
}

// NewStore creates a Store over the given collection. primary names
// the embedding model whose vectors are cached.
func NewStore(coll *mongo.Collection, cache *redis.Client, primary string, ttl time.Duration) *Store {
	return &Store{coll: coll, cache: cache, primary: primary, ttl: ttl}
}

// PrimaryVectors returns the whole catalog's vectors for the primary
// model, serving from cache when fresh.
func (s *Store) PrimaryVectors(ctx context.Context) (map[string][]float32, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, primaryCacheKey).Bytes()
		if err == nil {
			var vectors map[string][]float32
			if err := json.Unmarshal(raw, &vectors); err == nil {
				return vectors, nil
			}
			// Corrupt cache entry, fall through to Mongo.
		}
	}

	field := "embeddings." + s.primary
	cursor, err := s.coll.Find(ctx,
		bson.M{field: bson.M{"$exists": true}},
		options.Find().SetProjection(bson.M{field: 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("load primary vectors: %w", err)
	}
	defer cursor.Close(ctx)

	vectors := make(map[string][]float32)
	for cursor.Next(ctx) {
		var doc models.Ticker
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode ticker: %w", err)
		}
		if vec, ok := doc.Embeddings[s.primary]; ok {
			vectors[doc.Symbol] = vec
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(vectors); err == nil {
			s.cache.Set(ctx, primaryCacheKey, raw, s.ttl)
		}
	}
	return vectors, nil
}

// ModelVectors returns the named model's vectors for the given tickers.
// Tickers without a stored vector for that model are omitted.
func (s *Store) ModelVectors(ctx context.Context, model string, symbols []string) (map[string][]float32, error) {
	field := "embeddings." + model
	cursor, err := s.coll.Find(ctx,
		bson.M{"_id": bson.M{"$in": symbols}, field: bson.M{"$exists": true}},
		options.Find().SetProjection(bson.M{field: 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("load %s vectors: %w", model, err)
	}
	defer cursor.Close(ctx)

	vectors := make(map[string][]float32, len(symbols))
	for cursor.Next(ctx) {
		var doc models.Ticker
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode ticker: %w", err)
		}
		if vec, ok := doc.Embeddings[model]; ok {
			vectors[doc.Symbol] = vec
		}
	}
	return vectors, cursor.Err()
}

// Get returns one ticker document.
func (s *Store) Get(ctx context.Context, symbol string) (*models.Ticker, error) {
	var doc models.Ticker
	if err := s.coll.FindOne(ctx, bson.M{"_id": symbol}).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Missing returns tickers that lack a vector for at least one of the
// given models. Used by the catalog refresher.
func (s *Store) Missing(ctx context.Context, modelNames []string) ([]models.Ticker, error) {
	clauses := make([]bson.M, 0, len(modelNames))
	for _, name := range modelNames {
		clauses = append(clauses, bson.M{"embeddings." + name: bson.M{"$exists": false}})
	}
	cursor, err := s.coll.Find(ctx, bson.M{"$or": clauses})
	if err != nil {
		return nil, fmt.Errorf("find tickers with missing vectors: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Ticker
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateVectors stores freshly computed vectors for a ticker and
// invalidates the primary cache when the primary model is among them.
func (s *Store) UpdateVectors(ctx context.Context, symbol string, vectors map[string][]float32) error {
	set := bson.M{}
	for name, vec := range vectors {
		set["embeddings."+name] = vec
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": symbol}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update vectors for %s: %w", symbol, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update vectors: ticker %s not found", symbol)
	}

	if s.cache != nil {
		if _, ok := vectors[s.primary]; ok {
			s.cache.Del(ctx, primaryCacheKey)
		}
	}
	return nil
}
