package config

import (
	"math"
	"testing"
)

func TestParseAssets_Defaults(t *testing.T) {
	assets, err := ParseAssets(defaultAssets, 75)
	if err != nil {
		t.Fatalf("default asset table must parse: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 default assets, got %d", len(assets))
	}

	rel := assets[0]
	if rel.Name != "RELIANCE" || rel.Source != "yahoo" || rel.Symbol != "RELIANCE.NS" || rel.Interval != "15m" {
		t.Errorf("unexpected first asset: %+v", rel)
	}
	if rel.FractalStrength != 2 || rel.RSILength != 17 {
		t.Errorf("unexpected RELIANCE periods: %+v", rel)
	}
	if math.Abs(rel.RSITop-65) > 1e-9 || math.Abs(rel.RSIBot-40) > 1e-9 {
		t.Errorf("unexpected RELIANCE thresholds: %+v", rel)
	}
	if math.Abs(rel.MinProbability-75) > 1e-9 {
		t.Errorf("expected default min probability, got %g", rel.MinProbability)
	}

	btc := assets[1]
	if btc.Name != "BITCOIN" || btc.Source != "binance" || btc.Symbol != "BTCUSDT" || btc.Interval != "1h" {
		t.Errorf("unexpected second asset: %+v", btc)
	}
	if btc.RSILength != 14 || math.Abs(btc.RSITop-70) > 1e-9 || math.Abs(btc.RSIBot-30) > 1e-9 {
		t.Errorf("unexpected BITCOIN params: %+v", btc)
	}
}

func TestParseAssets_ExplicitMinProbability(t *testing.T) {
	assets, err := ParseAssets("ETH:binance-ws:ETHUSDT:4h:3:14:72:28:90", 75)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	a := assets[0]
	if a.Source != "binance-ws" || a.FractalStrength != 3 {
		t.Errorf("unexpected asset: %+v", a)
	}
	if math.Abs(a.MinProbability-90) > 1e-9 {
		t.Errorf("expected explicit min probability 90, got %g", a.MinProbability)
	}
}

func TestParseAssets_SkipsBlanksAndNormalizesSource(t *testing.T) {
	assets, err := ParseAssets(" , BTC:Binance:BTCUSDT:1h:2:14:70:30 ,", 75)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(assets))
	}
	if assets[0].Source != "binance" {
		t.Errorf("source must be lowercased, got %q", assets[0].Source)
	}
}

func TestParseAssets_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"too few fields", "BTC:binance:BTCUSDT:1h:2:14:70"},
		{"too many fields", "BTC:binance:BTCUSDT:1h:2:14:70:30:80:extra"},
		{"zero strength", "BTC:binance:BTCUSDT:1h:0:14:70:30"},
		{"bad rsi length", "BTC:binance:BTCUSDT:1h:2:x:70:30"},
		{"bad threshold", "BTC:binance:BTCUSDT:1h:2:14:hot:30"},
		{"blank name", ":binance:BTCUSDT:1h:2:14:70:30"},
		{"duplicate name", "BTC:binance:BTCUSDT:1h:2:14:70:30,BTC:yahoo:BTC-USD:1h:2:14:70:30"},
	}
	for _, tc := range cases {
		if _, err := ParseAssets(tc.in, 75); err == nil {
			t.Errorf("%s: expected error for %q", tc.name, tc.in)
		}
	}
}
