// Package strategy implements the reversal-point detection (RPD) rule:
// a confirmed fractal extreme coinciding with an RSI extreme on the same bar.
//
// The Evaluator is a pure function of its input series and asset config;
// re-evaluating an identical series yields an identical result. It never
// returns an error: insufficient data, an undefined indicator value or an
// out-of-range anchor all degrade to "no signal".
package strategy

import (
	"math"

	"rpdbot/internal/indicator"
	"rpdbot/internal/model"
)

// minSeriesLen is the floor on usable series length. Shorter series produce
// no signal regardless of indicator warm-up requirements.
const minSeriesLen = 50

// DefaultConfidence is the placeholder score assigned to every detection
// until a real probability model exists. Surfaced to callers as-is.
const DefaultConfidence = 85.0

// Scorer assigns a confidence score to a detected reversal. It is the
// extension point for a future probability model.
type Scorer interface {
	// Score rates the reversal at series[anchor]. Result is a percentage.
	Score(series model.Series, anchor int, kind model.SignalKind) float64
}

// ConstantScorer scores every detection with a fixed value.
type ConstantScorer struct {
	Value float64
}

func (s ConstantScorer) Score(model.Series, int, model.SignalKind) float64 {
	return s.Value
}

// AnchorRSI reports the RSI value at the bar Evaluate would inspect for this
// series. ok is false when the anchor is out of range or its RSI is still
// undefined. Exposed for observability (gauges, one-shot scans).
func AnchorRSI(series model.Series, asset model.Asset) (float64, bool) {
	if asset.FractalStrength < 1 || asset.RSILength < 1 {
		return 0, false
	}
	anchor := len(series) - (asset.FractalStrength + 1)
	if anchor < 0 {
		return 0, false
	}
	r := indicator.RSISeries(series.Closes(), asset.RSILength)[anchor]
	if math.IsNaN(r) {
		return 0, false
	}
	return r, true
}

// Evaluator detects RPD signals on candle series.
type Evaluator struct {
	scorer Scorer
}

// NewEvaluator creates an evaluator. A nil scorer falls back to the constant
// placeholder score.
func NewEvaluator(scorer Scorer) *Evaluator {
	if scorer == nil {
		scorer = ConstantScorer{Value: DefaultConfidence}
	}
	return &Evaluator{scorer: scorer}
}

// Evaluate inspects the most recent fully-confirmed bar of the series and
// returns a signal if the RPD conditions hold there, or nil.
//
// The anchor sits strength+1 positions from the end (index len-(strength+1)):
// the trailing strength bars cannot yet have a confirmed fractal window, and
// the bar just before them is the newest one whose window ends exactly at the
// series tail. Dedup against previously reported anchors is the
// Gate's job, not done here.
func (e *Evaluator) Evaluate(series model.Series, asset model.Asset) *model.Signal {
	if len(series) < minSeriesLen || asset.FractalStrength < 1 || asset.RSILength < 1 {
		return nil
	}

	n := asset.FractalStrength
	anchor := len(series) - (n + 1)
	if anchor < n {
		return nil // fractal window cannot be formed on the left side
	}

	rsi := indicator.RSISeries(series.Closes(), asset.RSILength)
	r := rsi[anchor]
	if math.IsNaN(r) {
		return nil // insufficient warm-up history at the anchor
	}

	highs := indicator.FractalHighs(series.Highs(), n)
	lows := indicator.FractalLows(series.Lows(), n)

	var kind model.SignalKind
	switch {
	// Peak wins the degenerate case where a flat window fires both ways.
	case highs[anchor] && r > asset.RSITop:
		kind = model.SignalPeak
	case lows[anchor] && r < asset.RSIBot:
		kind = model.SignalValley
	default:
		return nil
	}

	confidence := e.scorer.Score(series, anchor, kind)
	if confidence < asset.MinProbability {
		return nil
	}

	return &model.Signal{
		Asset:      asset.Name,
		Symbol:     asset.Symbol,
		Interval:   asset.Interval,
		Kind:       kind,
		TS:         series[anchor].TS,
		Price:      series[anchor].Close,
		Confidence: confidence,
	}
}
