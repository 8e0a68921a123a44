package strategy

import (
	"testing"
	"time"
)

func TestGate_FirstSightingIsNovel(t *testing.T) {
	g := NewGate()
	ts := time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)

	if !g.Novel("BITCOIN", ts) {
		t.Fatal("first anchor must be novel")
	}
	if got, ok := g.Last("BITCOIN"); !ok || !got.Equal(ts) {
		t.Errorf("expected stored anchor %s, got %s (ok=%v)", ts, got, ok)
	}
}

func TestGate_SameAnchorSuppressed(t *testing.T) {
	g := NewGate()
	ts := time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)

	if !g.Novel("BITCOIN", ts) {
		t.Fatal("first anchor must be novel")
	}
	if g.Novel("BITCOIN", ts) {
		t.Error("repeated anchor must be suppressed")
	}
	if g.Novel("BITCOIN", ts) {
		t.Error("still suppressed on third presentation")
	}
}

func TestGate_NewAnchorIsNovelAgain(t *testing.T) {
	g := NewGate()
	ts1 := time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)
	ts2 := ts1.Add(time.Hour)

	g.Novel("BITCOIN", ts1)
	if !g.Novel("BITCOIN", ts2) {
		t.Error("a later anchor must be novel")
	}
	if g.Novel("BITCOIN", ts2) {
		t.Error("the later anchor must then be suppressed")
	}
}

func TestGate_AssetsAreIndependent(t *testing.T) {
	g := NewGate()
	ts := time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)

	if !g.Novel("BITCOIN", ts) {
		t.Fatal("first asset must be novel")
	}
	if !g.Novel("RELIANCE", ts) {
		t.Error("same timestamp on another asset must still be novel")
	}
}
