package model

import (
	"encoding/json"
	"time"
)

// SignalKind is the direction of a reversal signal.
type SignalKind string

const (
	// SignalPeak marks a fractal high with overbought RSI (short bias).
	SignalPeak SignalKind = "PEAK"
	// SignalValley marks a fractal low with oversold RSI (long bias).
	SignalValley SignalKind = "VALLEY"
)

// Signal is one detected reversal. Ephemeral: produced and consumed within a
// single evaluation cycle; only its anchor timestamp survives in the dedup
// gate.
type Signal struct {
	Asset      string     `json:"asset"`
	Symbol     string     `json:"symbol"`
	Interval   string     `json:"interval"`
	Kind       SignalKind `json:"kind"`
	TS         time.Time  `json:"ts"`    // anchor bar timestamp
	Price      float64    `json:"price"` // anchor bar close
	Confidence float64    `json:"confidence"`
}

// JSON returns the JSON-encoded signal (ignoring errors for hot-path usage).
func (s *Signal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
