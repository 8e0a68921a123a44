package sqlite

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"rpdbot/internal/model"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(JournalConfig{DBPath: filepath.Join(t.TempDir(), "signals.db")})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func testSignal(asset string, ts time.Time) *model.Signal {
	return &model.Signal{
		Asset:      asset,
		Symbol:     "BTCUSDT",
		Interval:   "1h",
		Kind:       model.SignalPeak,
		TS:         ts,
		Price:      67200.50,
		Confidence: 85.0,
	}
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j := testJournal(t)
	anchor := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	if err := j.Record(testSignal("BITCOIN", anchor)); err != nil {
		t.Fatalf("record: %v", err)
	}

	recent, err := j.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 row, got %d", len(recent))
	}
	got := recent[0]
	if got.Asset != "BITCOIN" || got.Kind != model.SignalPeak || !got.TS.Equal(anchor) {
		t.Errorf("unexpected row: %+v", got)
	}
	if math.Abs(got.Price-67200.50) > 1e-9 || math.Abs(got.Confidence-85.0) > 1e-9 {
		t.Errorf("unexpected price/confidence: %+v", got)
	}
}

func TestJournal_RerecordSameAnchorOverwrites(t *testing.T) {
	j := testJournal(t)
	anchor := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	if err := j.Record(testSignal("BITCOIN", anchor)); err != nil {
		t.Fatalf("record: %v", err)
	}
	again := testSignal("BITCOIN", anchor)
	again.Price = 67300
	if err := j.Record(again); err != nil {
		t.Fatalf("re-record: %v", err)
	}

	recent, err := j.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected overwrite, got %d rows", len(recent))
	}
	if recent[0].Price != 67300 {
		t.Errorf("expected overwritten price, got %g", recent[0].Price)
	}
}

func TestJournal_LastAnchor(t *testing.T) {
	j := testJournal(t)

	zero, err := j.LastAnchor("BITCOIN")
	if err != nil {
		t.Fatalf("last anchor: %v", err)
	}
	if !zero.IsZero() {
		t.Fatalf("expected zero time for empty journal, got %s", zero)
	}

	a1 := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	a2 := a1.Add(time.Hour)
	if err := j.Record(testSignal("BITCOIN", a1)); err != nil {
		t.Fatal(err)
	}
	if err := j.Record(testSignal("BITCOIN", a2)); err != nil {
		t.Fatal(err)
	}
	if err := j.Record(testSignal("RELIANCE", a1)); err != nil {
		t.Fatal(err)
	}

	got, err := j.LastAnchor("BITCOIN")
	if err != nil {
		t.Fatalf("last anchor: %v", err)
	}
	if !got.Equal(a2) {
		t.Errorf("expected %s, got %s", a2, got)
	}
}
