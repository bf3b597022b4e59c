package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"Augur_1.0/backend/go/internal/models"
)

// ArticleStore reads the article collection the upstream scraper
// writes to. This service never writes articles.
type ArticleStore struct {
	coll *mongo.Collection
}

// NewArticleStore creates the store.
func NewArticleStore(coll *mongo.Collection) *ArticleStore {
	return &ArticleStore{coll: coll}
}

// FetchRecent returns articles published at or after since, oldest
// first so the pipeline processes them in publication order.
func (s *ArticleStore) FetchRecent(ctx context.Context, since time.Time) ([]models.Article, error) {
	cursor, err := s.coll.Find(ctx,
		bson.M{"published_at": bson.M{"$gte": since}},
		options.Find().SetSort(bson.M{"published_at": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find recent articles: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Article
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
