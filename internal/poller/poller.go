// Package poller drives the evaluation loop: on a fixed cadence it fetches
// candles for each tracked asset, runs the reversal detection, gates on
// novelty and hands novel signals to the notifier, journal and publisher.
//
// Assets are evaluated strictly sequentially, one asset fully processed
// before the next and one full pass before the next, so the dedup gate needs no
// locking. Any per-asset failure is logged and the loop moves on; nothing in
// a cycle can take the process down.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"rpdbot/internal/logger"
	"rpdbot/internal/marketdata"
	"rpdbot/internal/metrics"
	"rpdbot/internal/model"
	"rpdbot/internal/notification"
	redisstore "rpdbot/internal/store/redis"
	sqlitestore "rpdbot/internal/store/sqlite"
	"rpdbot/internal/strategy"
)

const fetchTimeout = 30 * time.Second

// failAlertThreshold is how many consecutive failed checks of one asset it
// takes to escalate to a critical alert. Escalation repeats at the same
// spacing while the outage lasts, so one flaky fetch stays quiet but a dead
// upstream keeps paging.
const failAlertThreshold = 3

// Options wires the poller's collaborators. Journal and Publisher may be nil;
// the corresponding steps are skipped.
type Options struct {
	Assets     []model.Asset
	Sources    map[string]marketdata.Source
	Evaluator  *strategy.Evaluator
	Gate       *strategy.Gate
	Notifier   notification.Notifier
	Journal    *sqlitestore.Journal
	Publisher  *redisstore.Publisher
	Metrics    *metrics.Metrics
	Health     *metrics.HealthStatus
	Log        *slog.Logger
	Interval   time.Duration // between full cycles
	AssetDelay time.Duration // between assets within a cycle
	FetchLimit int           // candles requested per fetch
}

// Poller runs the evaluation loop.
type Poller struct {
	opts   Options
	paused atomic.Bool

	// Consecutive failed checks per asset. Touched only from the cycle
	// goroutine, like the dedup gate.
	failStreak map[string]int
}

// New creates a poller. Evaluator, Gate, Notifier, Metrics, Health and Log
// are required.
func New(opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 200
	}
	return &Poller{opts: opts, failStreak: make(map[string]int)}
}

// Pause stops evaluation cycles until Resume. Safe to call from the admin
// HTTP handler while Run is looping.
func (p *Poller) Pause() { p.paused.Store(true) }

// Resume re-enables evaluation cycles.
func (p *Poller) Resume() { p.paused.Store(false) }

// Paused reports whether polling is paused.
func (p *Poller) Paused() bool { return p.paused.Load() }

// Run sends the startup alert and then evaluates on the configured cadence.
// Blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	startup := notification.Alert{
		Level:   notification.AlertInfo,
		Title:   "✅ RPD Alert Bot is now LIVE and fully operational!",
		Message: "Tracking " + assetNames(p.opts.Assets),
	}
	if err := p.opts.Notifier.Send(ctx, startup); err != nil {
		p.opts.Log.Error("startup alert failed", "err", err)
		p.opts.Metrics.NotifyErrors.Inc()
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.Paused() {
				p.opts.Log.Info("cycle skipped, polling paused")
				continue
			}
			p.RunCycle(ctx)
		}
	}
}

// RunCycle evaluates every asset once, sequentially.
func (p *Poller) RunCycle(ctx context.Context) {
	start := time.Now()
	ctx = logger.WithCycleID(ctx, logger.GenerateCycleID(start))

	for i, asset := range p.opts.Assets {
		if ctx.Err() != nil {
			return
		}
		p.checkAsset(ctx, asset)

		// Spacing between assets keeps upstream APIs happy.
		if p.opts.AssetDelay > 0 && i < len(p.opts.Assets)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.opts.AssetDelay):
			}
		}
	}

	p.opts.Metrics.CyclesTotal.Inc()
	p.opts.Metrics.CycleDur.Observe(time.Since(start).Seconds())
	p.opts.Health.SetLastCycleAt(time.Now())
	p.opts.Log.Info("cycle complete",
		append([]any{"assets", len(p.opts.Assets), "took", time.Since(start).Round(time.Millisecond).String()},
			logger.LogWithCycle(ctx)...)...)
}

func (p *Poller) checkAsset(ctx context.Context, asset model.Asset) {
	alog := p.opts.Log.With("asset", asset.Name, "symbol", asset.Symbol, "interval", asset.Interval)
	p.opts.Metrics.ChecksTotal.WithLabelValues(asset.Name).Inc()

	src, ok := p.opts.Sources[asset.Source]
	if !ok {
		alog.Error("unknown data source", "source", asset.Source)
		p.noteFailure(ctx, asset, alog, fmt.Errorf("unknown data source %q", asset.Source))
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	fetchStart := time.Now()
	series, err := src.Candles(fetchCtx, asset.Symbol, asset.Interval, p.opts.FetchLimit)
	p.opts.Metrics.FetchDur.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		p.opts.Metrics.FetchErrors.WithLabelValues(asset.Name, asset.Source).Inc()
		alog.Error("candle fetch failed", "err", err)
		p.noteFailure(ctx, asset, alog, err)
		return
	}
	if len(series) == 0 {
		p.opts.Metrics.EmptySeries.WithLabelValues(asset.Name).Inc()
		alog.Warn("no candle data, skipping")
		return
	}
	if err := series.Validate(); err != nil {
		// Malformed upstream data: skip this asset for the cycle, next cycle
		// fetches a fresh series.
		p.opts.Metrics.InvalidSeries.WithLabelValues(asset.Name).Inc()
		alog.Error("series rejected", "err", err)
		p.noteFailure(ctx, asset, alog, err)
		return
	}
	delete(p.failStreak, asset.Name)

	evalStart := time.Now()
	sig := p.opts.Evaluator.Evaluate(series, asset)
	p.opts.Metrics.EvalDur.Observe(time.Since(evalStart).Seconds())

	if r, ok := strategy.AnchorRSI(series, asset); ok {
		p.opts.Metrics.LastRSI.WithLabelValues(asset.Name).Set(r)
	}

	if sig == nil {
		alog.Info("no new signal")
		p.publishEval(ctx, asset, series, nil)
		return
	}

	if !p.opts.Gate.Novel(asset.Name, sig.TS) {
		p.opts.Metrics.DupesSkipped.WithLabelValues(asset.Name).Inc()
		alog.Info("signal already sent for anchor", "anchor", sig.TS.Format(time.RFC3339))
		p.publishEval(ctx, asset, series, nil)
		return
	}

	alog.Info("novel signal detected",
		"kind", string(sig.Kind), "anchor", sig.TS.Format(time.RFC3339),
		"price", sig.Price, "confidence", sig.Confidence)
	p.opts.Metrics.SignalsTotal.WithLabelValues(asset.Name, string(sig.Kind)).Inc()

	if err := p.opts.Notifier.Send(ctx, notification.SignalAlert(sig)); err != nil {
		p.opts.Metrics.NotifyErrors.Inc()
		alog.Error("alert delivery failed", "err", err)
	}
	if p.opts.Journal != nil {
		if err := p.opts.Journal.Record(sig); err != nil {
			p.opts.Metrics.JournalErrors.Inc()
			alog.Error("journal write failed", "err", err)
		}
	}
	if p.opts.Publisher != nil {
		if err := p.opts.Publisher.PublishSignal(ctx, sig); err != nil {
			p.opts.Metrics.PublishErrors.Inc()
			alog.Error("redis publish failed", "err", err)
		}
	}
	p.publishEval(ctx, asset, series, sig)
}

// noteFailure counts consecutive failed checks for an asset and raises a
// critical alert at every failAlertThreshold-th failure in a row. The streak
// resets once a check gets past series validation again.
func (p *Poller) noteFailure(ctx context.Context, asset model.Asset, alog *slog.Logger, cause error) {
	p.failStreak[asset.Name]++
	streak := p.failStreak[asset.Name]
	if streak%failAlertThreshold != 0 {
		return
	}

	alert := notification.Alert{
		Level: notification.AlertCritical,
		Title: "🚨 RPD Alert Bot Error 🚨",
		Message: fmt.Sprintf("*Asset:* %s (%s)\n*Failed checks:* %d in a row\n*Last error:* %v",
			asset.Name, asset.Symbol, streak, cause),
	}
	if err := p.opts.Notifier.Send(ctx, alert); err != nil {
		p.opts.Metrics.NotifyErrors.Inc()
		alog.Error("critical alert delivery failed", "err", err)
	}
}

// evalSnapshot assembles the per-asset state published after an evaluation,
// including the freshest candle so dashboards can show the last seen price.
func evalSnapshot(asset model.Asset, series model.Series, sig *model.Signal) redisstore.EvalSnapshot {
	snap := redisstore.EvalSnapshot{
		Asset:     asset.Name,
		CheckedAt: time.Now().UTC(),
		Candles:   len(series),
		Fired:     sig != nil,
	}
	if len(series) > 0 {
		last := series[len(series)-1]
		snap.LastCandle = last.JSON()
	}
	if sig != nil {
		snap.Kind = string(sig.Kind)
	}
	return snap
}

func (p *Poller) publishEval(ctx context.Context, asset model.Asset, series model.Series, sig *model.Signal) {
	if p.opts.Publisher == nil {
		return
	}
	if err := p.opts.Publisher.PublishEval(ctx, evalSnapshot(asset, series, sig)); err != nil {
		p.opts.Metrics.PublishErrors.Inc()
		p.opts.Log.Error("redis eval snapshot failed", "asset", asset.Name, "err", err)
	}
}

func assetNames(assets []model.Asset) string {
	out := ""
	for i, a := range assets {
		if i > 0 {
			out += ", "
		}
		out += a.Name
	}
	return out
}
