// Package binance provides candle sources backed by the Binance public API:
// a REST client for /api/v3/klines and a kline WebSocket stream that keeps a
// rolling series up to date between polls.
//
// Klines come back as positional JSON arrays with string-encoded prices:
//
//	[1499040000000, "0.01634790", "0.80000000", "0.01575800", "0.01577100",
//	 "148976.11427815", 1499644799999, ...]
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rpdbot/internal/model"
)

const (
	defaultBaseURL = "https://api.binance.com"
	maxKlineLimit  = 1000
)

// Client fetches candles from the Binance REST API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a REST client. An empty baseURL uses the public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Name() string { return "binance" }

// Candles fetches up to limit most-recent klines for symbol at interval.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) (model.Series, error) {
	if limit <= 0 || limit > maxKlineLimit {
		limit = maxKlineLimit
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	reqURL := c.baseURL + "/api/v3/klines?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance: fetch klines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance: unexpected status %d for %s", resp.StatusCode, symbol)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance: read body: %w", err)
	}

	series, err := parseKlines(body)
	if err != nil {
		return nil, fmt.Errorf("binance: %s: %w", symbol, err)
	}
	return series, nil
}

// parseKlines decodes the positional kline rows into a candle series.
func parseKlines(data []byte) (model.Series, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse klines: %w", err)
	}

	series := make(model.Series, 0, len(rows))
	for i, row := range rows {
		// openTime + OHLCV occupy the first six positions.
		if len(row) < 6 {
			return nil, fmt.Errorf("parse klines: row %d has %d fields", i, len(row))
		}

		var openTimeMs int64
		if err := json.Unmarshal(row[0], &openTimeMs); err != nil {
			return nil, fmt.Errorf("parse klines: row %d open time: %w", i, err)
		}

		var fields [5]float64
		for j := 1; j <= 5; j++ {
			var s string
			if err := json.Unmarshal(row[j], &s); err != nil {
				return nil, fmt.Errorf("parse klines: row %d field %d: %w", i, j, err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse klines: row %d field %d: %w", i, j, err)
			}
			fields[j-1] = v
		}

		series = append(series, model.Candle{
			TS:     time.UnixMilli(openTimeMs).UTC(),
			Open:   fields[0],
			High:   fields[1],
			Low:    fields[2],
			Close:  fields[3],
			Volume: fields[4],
		})
	}
	return series, nil
}
