// Command scan runs a single evaluation pass over the configured assets and
// prints the outcome, without notifying, journaling or publishing anything.
// Useful for checking parameters before pointing the bot at a chat.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"rpdbot/config"
	"rpdbot/internal/marketdata"
	"rpdbot/internal/marketdata/binance"
	"rpdbot/internal/marketdata/yahoo"
	"rpdbot/internal/strategy"
)

func main() {
	log.SetFlags(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("scan: config: %v", err)
	}

	sources := map[string]marketdata.Source{
		"binance": binance.NewClient(""),
		"yahoo":   yahoo.NewClient(""),
	}
	// One-shot runs have no long-lived stream; fall back to REST.
	sources["binance-ws"] = sources["binance"]

	eval := strategy.NewEvaluator(nil)
	exitCode := 0

	for _, asset := range cfg.Assets {
		src, ok := sources[asset.Source]
		if !ok {
			fmt.Printf("%-12s unknown source %q\n", asset.Name, asset.Source)
			exitCode = 1
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		series, err := src.Candles(ctx, asset.Symbol, asset.Interval, cfg.FetchLimit)
		cancel()
		if err != nil {
			fmt.Printf("%-12s fetch failed: %v\n", asset.Name, err)
			exitCode = 1
			continue
		}
		if len(series) == 0 {
			fmt.Printf("%-12s no data\n", asset.Name)
			continue
		}
		if err := series.Validate(); err != nil {
			fmt.Printf("%-12s invalid series: %v\n", asset.Name, err)
			exitCode = 1
			continue
		}

		rsiNote := "n/a"
		if r, ok := strategy.AnchorRSI(series, asset); ok {
			rsiNote = fmt.Sprintf("%.2f", r)
		}

		if sig := eval.Evaluate(series, asset); sig != nil {
			fmt.Printf("%-12s %s anchor=%s price=%.4f confidence=%.2f (anchor RSI %s, %d candles)\n",
				asset.Name, sig.Kind, sig.TS.Format(time.RFC3339), sig.Price, sig.Confidence, rsiNote, len(series))
		} else {
			fmt.Printf("%-12s no signal (anchor RSI %s, %d candles)\n", asset.Name, rsiNote, len(series))
		}
	}

	os.Exit(exitCode)
}
