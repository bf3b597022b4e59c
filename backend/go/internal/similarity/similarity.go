package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"Augur_1.0/backend/go/internal/models"
)

// ErrDimensionMismatch is returned when two vectors cannot be compared.
var ErrDimensionMismatch = errors.New("similarity: vector dimension mismatch")

// Cosine returns the cosine similarity of two vectors. A zero-norm
// vector yields 0 rather than NaN so degenerate embeddings rank last
// instead of poisoning the sort.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Rank scores every ticker vector against the query and returns the
// top k by descending similarity. Ties break on ascending ticker
// symbol so the ordering is deterministic. A stored vector whose
// dimension does not match the query means the catalog is corrupt,
// and the mismatch is surfaced as ErrDimensionMismatch with the
// offending ticker.
func Rank(query []float32, vectors map[string][]float32, k int) ([]models.CandidateScore, error) {
	scores := make([]models.CandidateScore, 0, len(vectors))
	for ticker, vec := range vectors {
		sim, err := Cosine(query, vec)
		if err != nil {
			return nil, fmt.Errorf("ticker %s: %w", ticker, err)
		}
		scores = append(scores, models.CandidateScore{Ticker: ticker, Similarity: sim})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Similarity != scores[j].Similarity {
			return scores[i].Similarity > scores[j].Similarity
		}
		return scores[i].Ticker < scores[j].Ticker
	})

	if k > 0 && len(scores) > k {
		scores = scores[:k]
	}
	return scores, nil
}
