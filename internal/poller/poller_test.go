package poller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"rpdbot/internal/marketdata"
	"rpdbot/internal/metrics"
	"rpdbot/internal/model"
	"rpdbot/internal/notification"
	"rpdbot/internal/strategy"
)

// Prometheus collectors register against the default registry, so the test
// binary shares one Metrics across all cases.
var testProm = metrics.NewMetrics()

var t0 = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	series model.Series
	err    error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Candles(ctx context.Context, symbol, interval string, limit int) (model.Series, error) {
	return f.series, f.err
}

type captureNotifier struct {
	alerts []notification.Alert
}

func (c *captureNotifier) Send(ctx context.Context, a notification.Alert) error {
	c.alerts = append(c.alerts, a)
	return nil
}

func testAsset() model.Asset {
	return model.Asset{
		Name:            "BITCOIN",
		Source:          "fake",
		Symbol:          "BTCUSDT",
		Interval:        "1h",
		FractalStrength: 2,
		RSILength:       14,
		RSITop:          70,
		RSIBot:          30,
		MinProbability:  75,
	}
}

// peakSeries builds numBars hourly candles with steadily rising closes (RSI
// pinned at 100) and a strict fractal high at the confirmation index
// numBars-3 for strength 2.
func peakSeries(numBars int) model.Series {
	s := make(model.Series, numBars)
	for i := range s {
		c := 100 + float64(i)*0.1
		s[i] = model.Candle{
			TS:     t0.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + float64(i)*0.01,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	s[numBars-3].High = 10000
	return s
}

func newTestPoller(src marketdata.Source, sink *captureNotifier) *Poller {
	return New(Options{
		Assets:     []model.Asset{testAsset()},
		Sources:    map[string]marketdata.Source{"fake": src},
		Evaluator:  strategy.NewEvaluator(nil),
		Gate:       strategy.NewGate(),
		Notifier:   sink,
		Metrics:    testProm,
		Health:     metrics.NewHealthStatus(),
		Log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Interval:   time.Minute,
		FetchLimit: 200,
	})
}

func TestRunCycle_AlertsOnceThenSuppresses(t *testing.T) {
	src := &fakeSource{series: peakSeries(60)}
	sink := &captureNotifier{}
	p := newTestPoller(src, sink)

	p.RunCycle(context.Background())
	if len(sink.alerts) != 1 {
		t.Fatalf("expected 1 alert after first cycle, got %d", len(sink.alerts))
	}
	if sink.alerts[0].Level != notification.AlertSignal {
		t.Errorf("expected SIGNAL level, got %s", sink.alerts[0].Level)
	}
	if !strings.Contains(sink.alerts[0].Message, "PEAK REVERSAL") {
		t.Errorf("expected peak message, got %q", sink.alerts[0].Message)
	}

	// Same series again: same anchor, the gate suppresses it.
	p.RunCycle(context.Background())
	if len(sink.alerts) != 1 {
		t.Fatalf("expected duplicate suppressed, got %d alerts", len(sink.alerts))
	}

	// A new bar closes and the fractal re-confirms at a fresh anchor.
	src.series = peakSeries(61)
	p.RunCycle(context.Background())
	if len(sink.alerts) != 2 {
		t.Fatalf("expected new-anchor alert, got %d alerts", len(sink.alerts))
	}
}

func TestRunCycle_FetchErrorDoesNotAlert(t *testing.T) {
	sink := &captureNotifier{}
	p := newTestPoller(&fakeSource{err: errors.New("upstream down")}, sink)

	p.RunCycle(context.Background())
	if len(sink.alerts) != 0 {
		t.Fatalf("expected no alerts on fetch failure, got %d", len(sink.alerts))
	}
}

func TestRunCycle_RepeatedFailuresEscalate(t *testing.T) {
	src := &fakeSource{err: errors.New("upstream down")}
	sink := &captureNotifier{}
	p := newTestPoller(src, sink)

	// Two failed cycles stay quiet.
	p.RunCycle(context.Background())
	p.RunCycle(context.Background())
	if len(sink.alerts) != 0 {
		t.Fatalf("expected no alerts before the threshold, got %d", len(sink.alerts))
	}

	// The third consecutive failure escalates.
	p.RunCycle(context.Background())
	if len(sink.alerts) != 1 {
		t.Fatalf("expected 1 critical alert at the threshold, got %d", len(sink.alerts))
	}
	if sink.alerts[0].Level != notification.AlertCritical {
		t.Errorf("expected CRITICAL level, got %s", sink.alerts[0].Level)
	}
	if !strings.Contains(sink.alerts[0].Message, "upstream down") {
		t.Errorf("expected cause in message, got %q", sink.alerts[0].Message)
	}

	// The outage keeps paging at the same spacing, not every cycle.
	p.RunCycle(context.Background())
	p.RunCycle(context.Background())
	if len(sink.alerts) != 1 {
		t.Fatalf("expected no re-alert between thresholds, got %d", len(sink.alerts))
	}
	p.RunCycle(context.Background())
	if len(sink.alerts) != 2 {
		t.Fatalf("expected second escalation after six failures, got %d", len(sink.alerts))
	}
}

func TestRunCycle_RecoveryResetsFailureStreak(t *testing.T) {
	src := &fakeSource{err: errors.New("upstream down")}
	sink := &captureNotifier{}
	p := newTestPoller(src, sink)

	p.RunCycle(context.Background())
	p.RunCycle(context.Background())

	// Recovery: the next check succeeds and fires a signal.
	src.err = nil
	src.series = peakSeries(60)
	p.RunCycle(context.Background())
	if len(sink.alerts) != 1 || sink.alerts[0].Level != notification.AlertSignal {
		t.Fatalf("expected a signal alert on recovery, got %+v", sink.alerts)
	}

	// A fresh failure starts counting from zero again.
	src.err = errors.New("upstream down again")
	src.series = nil
	p.RunCycle(context.Background())
	p.RunCycle(context.Background())
	if len(sink.alerts) != 1 {
		t.Fatalf("expected no critical alert two failures after recovery, got %d", len(sink.alerts))
	}
}

func TestRunCycle_EmptySeriesSkipped(t *testing.T) {
	sink := &captureNotifier{}
	p := newTestPoller(&fakeSource{}, sink)

	p.RunCycle(context.Background())
	if len(sink.alerts) != 0 {
		t.Fatalf("expected no alerts on empty series, got %d", len(sink.alerts))
	}
}

func TestRunCycle_InvalidSeriesSkipped(t *testing.T) {
	bad := peakSeries(60)
	bad[10].TS = bad[9].TS // break monotonic ordering
	sink := &captureNotifier{}
	p := newTestPoller(&fakeSource{series: bad}, sink)

	p.RunCycle(context.Background())
	if len(sink.alerts) != 0 {
		t.Fatalf("expected no alerts on invalid series, got %d", len(sink.alerts))
	}
}

func TestRunCycle_UnknownSourceSkipped(t *testing.T) {
	sink := &captureNotifier{}
	p := newTestPoller(&fakeSource{series: peakSeries(60)}, sink)
	p.opts.Assets[0].Source = "nope"

	p.RunCycle(context.Background())
	if len(sink.alerts) != 0 {
		t.Fatalf("expected no alerts for unknown source, got %d", len(sink.alerts))
	}
}

func TestEvalSnapshot_CarriesLastCandle(t *testing.T) {
	series := peakSeries(60)
	sig := strategy.NewEvaluator(nil).Evaluate(series, testAsset())
	if sig == nil {
		t.Fatal("expected a signal from the peak series")
	}

	snap := evalSnapshot(testAsset(), series, sig)
	if snap.Candles != 60 || !snap.Fired || snap.Kind != string(model.SignalPeak) {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	var last model.Candle
	if err := json.Unmarshal(snap.LastCandle, &last); err != nil {
		t.Fatalf("decode last candle: %v", err)
	}
	if !last.TS.Equal(series[59].TS) {
		t.Errorf("expected newest bar %s, got %s", series[59].TS, last.TS)
	}

	empty := evalSnapshot(testAsset(), nil, nil)
	if empty.Fired || empty.Candles != 0 || empty.LastCandle != nil {
		t.Errorf("unexpected empty snapshot: %+v", empty)
	}
}

func TestPauseResume(t *testing.T) {
	p := newTestPoller(&fakeSource{}, &captureNotifier{})
	if p.Paused() {
		t.Fatal("poller must start unpaused")
	}
	p.Pause()
	if !p.Paused() {
		t.Fatal("expected paused after Pause")
	}
	p.Resume()
	if p.Paused() {
		t.Fatal("expected running after Resume")
	}
}
