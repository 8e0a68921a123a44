package model

// Asset describes one tracked instrument and its detection parameters.
// Immutable for the process lifetime; one instance per tracked asset.
type Asset struct {
	Name            string  `json:"name"`             // display name, e.g. "BITCOIN"
	Source          string  `json:"source"`           // data source id: "binance", "binance-ws", "yahoo"
	Symbol          string  `json:"symbol"`           // source-native ticker, e.g. "BTCUSDT", "RELIANCE.NS"
	Interval        string  `json:"interval"`         // bar interval, e.g. "15m", "1h"
	FractalStrength int     `json:"fractal_strength"` // window half-width N (>= 1)
	RSILength       int     `json:"rsi_length"`       // RSI period (>= 1)
	RSITop          float64 `json:"rsi_top"`          // overbought threshold
	RSIBot          float64 `json:"rsi_bot"`          // oversold threshold
	MinProbability  float64 `json:"min_probability"`  // suppress signals scored below this
}
