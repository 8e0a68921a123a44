package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Candle represents one OHLCV bar for a single asset at a single timeframe.
// Prices are float64 because sources span crypto and equities with very
// different tick sizes.
type Candle struct {
	TS     time.Time `json:"ts"` // bar open time (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Series is an ordered run of candles for one asset, ascending by TS.
// A series is replaced wholesale on every fetch; there is no incremental
// append path, so a fresh Validate() on each fetch covers all invariants.
type Series []Candle

// Validate checks the series invariants: strictly ascending timestamps and
// finite OHLCV fields. Returns the first violation found.
func (s Series) Validate() error {
	for i := range s {
		c := &s[i]
		for _, v := range [5]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("series: non-finite value at index %d (ts=%s)", i, c.TS.Format(time.RFC3339))
			}
		}
		if i > 0 && !s[i-1].TS.Before(c.TS) {
			return fmt.Errorf("series: non-ascending timestamp at index %d (%s >= %s)",
				i, s[i-1].TS.Format(time.RFC3339), c.TS.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes extracts the close-price column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Close
	}
	return out
}

// Highs extracts the high-price column.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].High
	}
	return out
}

// Lows extracts the low-price column.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Low
	}
	return out
}
