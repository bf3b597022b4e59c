package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"Augur_1.0/backend/go/internal/embedding"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/internal/prediction_service/store"
	"Augur_1.0/backend/go/internal/report"
	"Augur_1.0/backend/go/internal/similarity"
	"Augur_1.0/backend/go/pkg/logger"
)

// QueryEmbedder embeds free-text queries with the primary model.
type QueryEmbedder interface {
	Primary() string
	EmbedWith(ctx context.Context, name, text string) ([]float32, error)
}

// Catalog is the ticker lookup surface the recommend endpoint needs.
type Catalog interface {
	PrimaryVectors(ctx context.Context) (map[string][]float32, error)
	Get(ctx context.Context, symbol string) (*models.Ticker, error)
}

// API provides the read-only handlers for the prediction service.
type API struct {
	store    store.PredictionStore
	catalog  Catalog
	embedder QueryEmbedder
	topN     int
	logger   *logger.Logger
}

// NewAPI creates a new API handler.
func NewAPI(st store.PredictionStore, catalog Catalog, embedder QueryEmbedder, topN int, logger *logger.Logger) *API {
	if topN <= 0 {
		topN = 7
	}
	return &API{store: st, catalog: catalog, embedder: embedder, topN: topN, logger: logger}
}

// RecentHandler returns recently created prediction records.
func (a *API) RecentHandler(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if hours <= 0 {
		hours = 24
	}

	records, err := a.store.Recent(c.Request.Context(), time.Now().UTC().Add(-time.Duration(hours)*time.Hour), limit)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("recent predictions query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(records), "predictions": records})
}

// RecommendHandler ranks the ticker catalog against a free-text query
// and returns the closest matches.
func (a *API) RecommendHandler(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter 'q'"})
		return
	}

	ctx := c.Request.Context()
	vec, err := a.embedder.EmbedWith(ctx, a.embedder.Primary(), query)
	if err != nil {
		if errors.Is(err, embedding.ErrEmptyInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query has no embeddable content"})
			return
		}
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("query embedding failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to embed query"})
		return
	}

	vectors, err := a.catalog.PrimaryVectors(ctx)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("catalog load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load ticker catalog"})
		return
	}

	type match struct {
		Ticker     string  `json:"ticker"`
		Name       string  `json:"name"`
		Sector     string  `json:"sector"`
		Similarity float64 `json:"similarity"`
	}
	ranked, err := similarity.Rank(vec, vectors, a.topN)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("catalog ranking failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank ticker catalog"})
		return
	}

	var matches []match
	for _, score := range ranked {
		m := match{Ticker: score.Ticker, Similarity: score.Similarity}
		if row, err := a.catalog.Get(ctx, score.Ticker); err == nil {
			m.Name = row.Name
			m.Sector = row.Sector
		}
		matches = append(matches, m)
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "matches": matches})
}

// ReportHandler scores fully backfilled predictions from the last N
// days against actual market moves.
func (a *API) ReportHandler(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days <= 0 {
		days = 7
	}

	records, err := a.store.Recent(c.Request.Context(), time.Now().UTC().AddDate(0, 0, -days), 0)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("report query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	c.JSON(http.StatusOK, report.Build(records))
}
