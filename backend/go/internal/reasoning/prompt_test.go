package reasoning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"Augur_1.0/backend/go/internal/models"
)

func loadTestPrompts(t *testing.T) *PromptSet {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"stockprice.txt":     "Article: {{article}}\nCandidates:\n{{candidates}}",
		"stock_analysis.txt": "Article: {{article}} Ticker: {{ticker}} Price: {{price}}",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	prompts, err := LoadPrompts(dir)
	if err != nil {
		t.Fatal(err)
	}
	return prompts
}

func TestTickerSelectGroupsByModel(t *testing.T) {
	prompts := loadTestPrompts(t)

	candidates := []models.Candidate{
		{Ticker: "AAPL", Models: []string{"m1", "m2"}, Scores: map[string]float64{"m1": 0.9, "m2": 0.8}},
		{Ticker: "MSFT", Models: []string{"m1"}, Scores: map[string]float64{"m1": 0.7}},
		{Ticker: "GOOG", Models: []string{"m3"}, Scores: map[string]float64{"m3": 0.6}},
	}

	got := prompts.TickerSelect("Apple beats estimates.", candidates)
	for _, line := range []string{"m1: AAPL, MSFT", "m2: AAPL", "m3: GOOG"} {
		if !strings.Contains(got, line) {
			t.Fatalf("prompt missing %q:\n%s", line, got)
		}
	}
	if !strings.Contains(got, "Apple beats estimates.") {
		t.Fatalf("article not rendered:\n%s", got)
	}
}

func TestTickerSelectWithoutProvenanceFallsBackToFlatList(t *testing.T) {
	prompts := loadTestPrompts(t)

	got := prompts.TickerSelect("news", []models.Candidate{{Ticker: "AAPL"}, {Ticker: "MSFT"}})
	if !strings.Contains(got, "AAPL, MSFT") {
		t.Fatalf("flat fallback missing:\n%s", got)
	}
}

func TestPriceAnalysisRendersPrice(t *testing.T) {
	prompts := loadTestPrompts(t)

	got := prompts.PriceAnalysis("news", "AAPL", 185.5)
	if !strings.Contains(got, "Ticker: AAPL") || !strings.Contains(got, "Price: 185.50") {
		t.Fatalf("placeholders not rendered:\n%s", got)
	}
}
