package strategy

import "time"

// Gate remembers the last notified anchor timestamp per asset and suppresses
// repeats, so each distinct anchor bar alerts at most once per process
// lifetime. State is in-memory only: a restart may re-notify the current
// anchor, which is accepted.
//
// Designed for single-goroutine usage: the poller evaluates assets strictly
// sequentially, so no locks are needed. Parallelizing per-asset evaluation
// would require making the read-then-store below atomic per asset.
type Gate struct {
	last map[string]time.Time
}

// NewGate creates an empty dedup gate.
func NewGate() *Gate {
	return &Gate{last: make(map[string]time.Time)}
}

// Novel reports whether ts is a new anchor for the asset, recording it when
// it is. The timestamp is stored before reporting, so a crash between the
// two cannot double-notify within this process.
func (g *Gate) Novel(asset string, ts time.Time) bool {
	if prev, ok := g.last[asset]; ok && prev.Equal(ts) {
		return false
	}
	g.last[asset] = ts
	return true
}

// Last returns the last recorded anchor timestamp for the asset, if any.
func (g *Gate) Last(asset string) (time.Time, bool) {
	ts, ok := g.last[asset]
	return ts, ok
}
