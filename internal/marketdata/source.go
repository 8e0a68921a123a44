// Package marketdata defines the candle source contract the poller consumes.
//
// A source hands back a finite, time-ordered OHLCV series for one symbol at
// one bar interval. Sources do not retry or cache; the poller simply tries
// again next cycle on failure.
package marketdata

import (
	"context"

	"rpdbot/internal/model"
)

// Source fetches candle history for one symbol.
type Source interface {
	// Name returns the source id used in asset configs (e.g. "binance").
	Name() string

	// Candles returns up to limit most-recent bars for symbol at interval,
	// ascending by timestamp. An empty series with nil error means "no data
	// right now" and the caller skips the asset for this cycle.
	Candles(ctx context.Context, symbol, interval string, limit int) (model.Series, error)
}
