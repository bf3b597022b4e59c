package reasoning

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrZeroBasePrice is returned when a percent change cannot be
// computed because the base price is zero.
var ErrZeroBasePrice = errors.New("reasoning: zero base price")

// ParsedPrediction is one ticker's forecast extracted from a price
// analysis reply.
type ParsedPrediction struct {
	Ticker     string
	Price1Hr   float64
	Price4Hrs  float64
	Price24Hrs float64
	Analysis   string
	Trend      string
}

// Parser extracts structured fields from LLM replies. Replies that
// match nothing yield empty results, not errors; the grammar treats
// unparseable output as "no signal".
type Parser interface {
	// Tickers extracts the ticker symbols selected in a first-call reply.
	Tickers(reply string) []string
	// Effect extracts the effect classification, defaulting to "none".
	Effect(reply string) string
	// Predictions extracts per-ticker forecasts from a second-call reply.
	Predictions(reply string) []ParsedPrediction
}

var (
	tickerRe     = regexp.MustCompile(`\{\{TICKER \d+: ([A-Z]{1,5})\}\}`)
	effectRe     = regexp.MustCompile(`\{\{effect: "(\w+)"\}\}`)
	predictionRe = regexp.MustCompile(`\{\{TICKER: \[(\w+)\]\}\}: \{\{([\d\.]+)\}\}, \{\{([\d\.]+)\}\}, \{\{([\d\.]+)\}\}, \{\{"([^"]+)"\}\}, \{\{"([^"]+)"\}\}`)
)

// grammarParser implements Parser for the double-brace reply grammar
// the prompts instruct the model to emit.
type grammarParser struct{}

// NewParser returns the default grammar parser.
func NewParser() Parser {
	return grammarParser{}
}

func (grammarParser) Tickers(reply string) []string {
	matches := tickerRe.FindAllStringSubmatch(reply, -1)
	seen := make(map[string]bool, len(matches))
	tickers := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		tickers = append(tickers, m[1])
	}
	return tickers
}

func (grammarParser) Effect(reply string) string {
	if m := effectRe.FindStringSubmatch(reply); m != nil {
		return m[1]
	}
	return "none"
}

func (grammarParser) Predictions(reply string) []ParsedPrediction {
	matches := predictionRe.FindAllStringSubmatch(reply, -1)
	preds := make([]ParsedPrediction, 0, len(matches))
	for _, m := range matches {
		p1, err1 := strconv.ParseFloat(m[2], 64)
		p4, err4 := strconv.ParseFloat(m[3], 64)
		p24, err24 := strconv.ParseFloat(m[4], 64)
		if err1 != nil || err4 != nil || err24 != nil {
			continue
		}
		preds = append(preds, ParsedPrediction{
			Ticker:     m[1],
			Price1Hr:   p1,
			Price4Hrs:  p4,
			Price24Hrs: p24,
			Analysis:   m[5],
			Trend:      m[6],
		})
	}
	return preds
}

// PercentChange returns the percent move from the 1-hour forecast to
// the 24-hour forecast.
func PercentChange(price1Hr, price24Hrs float64) (float64, error) {
	if price1Hr == 0 {
		return 0, ErrZeroBasePrice
	}
	return (price24Hrs - price1Hr) / price1Hr * 100, nil
}
