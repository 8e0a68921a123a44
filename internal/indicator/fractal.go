package indicator

// FractalHighs flags bars whose high is the strict maximum of the symmetric
// window of width 2*strength+1 centered on them. A bar qualifies only if no
// other position in its window has a high >= its own, so plateaued maxima
// produce no fractal. Indices without a fully-formed window (the first and
// last strength bars) are always false.
//
// A fractal at index i is stable once all 2*strength+1 bars of its window
// exist: appending newer candles can never un-flag it. Callers therefore
// inspect bars at least strength+1 back from the series end.
func FractalHighs(highs []float64, strength int) []bool {
	out := make([]bool, len(highs))
	if strength < 1 {
		return out
	}
	for i := strength; i < len(highs)-strength; i++ {
		ok := true
		for j := i - strength; j <= i+strength; j++ {
			if j != i && highs[j] >= highs[i] {
				ok = false
				break
			}
		}
		out[i] = ok
	}
	return out
}

// FractalLows is the symmetric rule on lows: strict minimum of the window,
// ties disqualify.
func FractalLows(lows []float64, strength int) []bool {
	out := make([]bool, len(lows))
	if strength < 1 {
		return out
	}
	for i := strength; i < len(lows)-strength; i++ {
		ok := true
		for j := i - strength; j <= i+strength; j++ {
			if j != i && lows[j] <= lows[i] {
				ok = false
				break
			}
		}
		out[i] = ok
	}
	return out
}
