package indicator

import "math"

// RSISeries computes the Relative Strength Index over a close-price series
// using trailing simple averages of gains and losses over a window of length
// period. The result is aligned index-for-index with closes; the first period
// entries are NaN (insufficient history, never a neutral 50).
//
// At index i the trailing window covers the period price changes ending at i.
// RS = avgGain/avgLoss and RSI = 100 - 100/(1+RS). A zero average loss yields
// exactly 100, not a division failure.
func RSISeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if period < 1 || len(closes) <= period {
		return out
	}

	// Direct window sums per index. Series are a few hundred bars at most, so
	// the rolling-sum variant buys nothing and this one has no float drift.
	for i := period; i < len(closes); i++ {
		var gainSum, lossSum float64
		for j := i - period + 1; j <= i; j++ {
			delta := closes[j] - closes[j-1]
			if delta > 0 {
				gainSum += delta
			} else {
				lossSum -= delta
			}
		}

		if lossSum == 0 {
			out[i] = 100.0
			continue
		}
		rs := gainSum / lossSum // period divides out of avgGain/avgLoss
		out[i] = 100.0 - (100.0 / (1.0 + rs))
	}
	return out
}
