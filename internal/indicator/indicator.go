// Package indicator provides technical indicator calculations over candle data.
//
// All indicators here are series-based: they take a full column of values and
// return an output aligned index-for-index with the input. Positions without
// enough history carry an explicit "undefined" marker (NaN for float outputs,
// false for boolean outputs) rather than a silently substituted default.
package indicator
