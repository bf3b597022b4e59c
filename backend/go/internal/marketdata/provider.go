package marketdata

import (
	"context"
	"errors"
	"time"
)

// ErrNoData is returned when the upstream has no quotes for a symbol
// in the requested window.
var ErrNoData = errors.New("marketdata: no data for symbol")

// PricePoint is one quote in a price series.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// Provider serves spot prices and historical series for tickers.
type Provider interface {
	// CurrentPrice returns the latest traded price for symbol.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	// PriceHistory returns the price series between start and end at
	// the given interval ("1h", "1d"), oldest first.
	PriceHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]PricePoint, error)
}
