package reasoning

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"Augur_1.0/backend/go/internal/models"
)

const (
	tickerSelectFile  = "stockprice.txt"
	priceAnalysisFile = "stock_analysis.txt"
)

// PromptSet holds the two prompt templates used by the reasoning
// pipeline. Templates use {{article}}, {{candidates}}, {{ticker}} and
// {{price}} placeholders.
type PromptSet struct {
	tickerSelect  string
	priceAnalysis string
}

// LoadPrompts reads both prompt templates from dir.
func LoadPrompts(dir string) (*PromptSet, error) {
	selection, err := os.ReadFile(filepath.Join(dir, tickerSelectFile))
	if err != nil {
		return nil, fmt.Errorf("read ticker selection prompt: %w", err)
	}
	analysis, err := os.ReadFile(filepath.Join(dir, priceAnalysisFile))
	if err != nil {
		return nil, fmt.Errorf("read price analysis prompt: %w", err)
	}
	return &PromptSet{
		tickerSelect:  string(selection),
		priceAnalysis: string(analysis),
	}, nil
}

// TickerSelect renders the first-call prompt: given an article and its
// candidate tickers, ask which tickers the news plausibly moves.
func (p *PromptSet) TickerSelect(article string, candidates []models.Candidate) string {
	r := strings.NewReplacer(
		"{{article}}", article,
		"{{candidates}}", renderCandidates(candidates),
	)
	return r.Replace(p.tickerSelect)
}

// renderCandidates formats the candidate list grouped by the embedding
// models that voted for each ticker, one "model: T1, T2" line per
// model, so the reasoning model sees which model surfaced what.
// Candidates without provenance fall back to a flat list.
func renderCandidates(candidates []models.Candidate) string {
	var order []string
	byModel := make(map[string][]string)
	var flat []string
	for _, c := range candidates {
		if len(c.Models) == 0 {
			flat = append(flat, c.Ticker)
			continue
		}
		for _, m := range c.Models {
			if _, ok := byModel[m]; !ok {
				order = append(order, m)
			}
			byModel[m] = append(byModel[m], c.Ticker)
		}
	}

	var sb strings.Builder
	for i, m := range order {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(byModel[m], ", "))
	}
	if len(flat) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(flat, ", "))
	}
	return sb.String()
}

// PriceAnalysis renders the second-call prompt for one selected ticker
// anchored at its current price.
func (p *PromptSet) PriceAnalysis(article, ticker string, price float64) string {
	r := strings.NewReplacer(
		"{{article}}", article,
		"{{ticker}}", ticker,
		"{{price}}", fmt.Sprintf("%.2f", price),
	)
	return r.Replace(p.priceAnalysis)
}
