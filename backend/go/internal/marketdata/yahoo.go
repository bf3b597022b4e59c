package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"Augur_1.0/backend/go/internal/config"
	"Augur_1.0/backend/go/pkg/ratelimit"
	"Augur_1.0/backend/go/pkg/retry"
)

// YahooClient fetches quotes from a Yahoo-style finance chart API.
// All requests go through a token bucket so backfill batches do not
// hammer the upstream.
type YahooClient struct {
	client  *http.Client
	baseURL string
	limiter *ratelimit.TokenBucket
}

// NewYahooClient builds a client from config.
func NewYahooClient(cfg config.MarketDataConfig) *YahooClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	rate := cfg.RatePerSecond
	if rate <= 0 {
		rate = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &YahooClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		limiter: ratelimit.NewTokenBucket(rate, burst),
	}
}

// chartResponse mirrors the subset of the chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice   float64 `json:"regularMarketPrice"`
				RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
				RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// CurrentPrice returns the latest traded price for symbol, falling
// back to the day's high/low midpoint when the market price field is
// absent.
func (y *YahooClient) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	end := time.Now()
	payload, err := y.fetchChart(ctx, symbol, end.Add(-24*time.Hour), end, "1h")
	if err != nil {
		return 0, err
	}
	meta := payload.Chart.Result[0].Meta
	if meta.RegularMarketPrice > 0 {
		return meta.RegularMarketPrice, nil
	}
	if meta.RegularMarketDayHigh > 0 && meta.RegularMarketDayLow > 0 {
		return (meta.RegularMarketDayHigh + meta.RegularMarketDayLow) / 2, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrNoData, symbol)
}

// PriceHistory returns the close series between start and end.
// Null closes (halted intervals) are dropped.
func (y *YahooClient) PriceHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]PricePoint, error) {
	payload, err := y.fetchChart(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, err
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	closes := result.Indicators.Quote[0].Close

	points := make([]PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, PricePoint{
			Time:  time.Unix(ts, 0).UTC(),
			Price: *closes[i],
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return points, nil
}

func (y *YahooClient) fetchChart(ctx context.Context, symbol string, start, end time.Time, interval string) (*chartResponse, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", interval)

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(symbol), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build chart request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, retry.MarkTransient(fmt.Errorf("chart request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		httpErr := fmt.Errorf("chart request for %s: status %d: %s", symbol, resp.StatusCode, body)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, retry.MarkTransient(httpErr)
		}
		return nil, retry.MarkPermanent(httpErr)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, retry.MarkPermanent(fmt.Errorf("chart api error for %s: %s", symbol, payload.Chart.Error.Description))
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return &payload, nil
}
