package reasoning

import (
	"errors"
	"math"
	"testing"
)

func TestParseTickers(t *testing.T) {
	reply := `After reviewing the article I selected:
{{TICKER 1: AAPL}}
{{TICKER 2: MSFT}}
{{TICKER 3: AAPL}}
{{effect: "positive"}}`

	p := NewParser()
	got := p.Tickers(reply)
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Fatalf("got %v", got)
	}
}

func TestParseTickersRejectsLowercaseAndLong(t *testing.T) {
	reply := `{{TICKER 1: aapl}} {{TICKER 2: TOOLONG}} {{TICKER 3: GOOG}}`
	got := NewParser().Tickers(reply)
	if len(got) != 1 || got[0] != "GOOG" {
		t.Fatalf("got %v", got)
	}
}

func TestParseEffect(t *testing.T) {
	p := NewParser()
	if got := p.Effect(`blah {{effect: "negative"}} blah`); got != "negative" {
		t.Fatalf("got %q", got)
	}
	if got := p.Effect("no grammar at all"); got != "none" {
		t.Fatalf("default: got %q", got)
	}
}

func TestParsePredictions(t *testing.T) {
	reply := `Analysis follows.
{{TICKER: [AAPL]}}: {{187.20}}, {{188.05}}, {{190.50}}, {{"strong earnings beat"}}, {{"high likelihood of upward trend"}}`

	got := NewParser().Predictions(reply)
	if len(got) != 1 {
		t.Fatalf("want 1 prediction, got %v", got)
	}
	p := got[0]
	if p.Ticker != "AAPL" {
		t.Fatalf("ticker: %q", p.Ticker)
	}
	if p.Price1Hr != 187.20 || p.Price4Hrs != 188.05 || p.Price24Hrs != 190.50 {
		t.Fatalf("prices: %+v", p)
	}
	if p.Analysis != "strong earnings beat" {
		t.Fatalf("analysis: %q", p.Analysis)
	}
	if p.Trend != "high likelihood of upward trend" {
		t.Fatalf("trend: %q", p.Trend)
	}
}

func TestParsePredictionsNoMatch(t *testing.T) {
	got := NewParser().Predictions("the model rambled with no grammar")
	if len(got) != 0 {
		t.Fatalf("want none, got %v", got)
	}
}

func TestPercentChange(t *testing.T) {
	got, err := PercentChange(100, 105)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-5) > 1e-9 {
		t.Fatalf("got %f", got)
	}

	if _, err := PercentChange(0, 105); !errors.Is(err, ErrZeroBasePrice) {
		t.Fatalf("want ErrZeroBasePrice, got %v", err)
	}
}
