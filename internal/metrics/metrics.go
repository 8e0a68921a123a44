package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the alert bot.
type Metrics struct {
	CyclesTotal    prometheus.Counter
	ChecksTotal    *prometheus.CounterVec // labels: asset
	FetchErrors    *prometheus.CounterVec // labels: asset, source
	EmptySeries    *prometheus.CounterVec // labels: asset
	InvalidSeries  *prometheus.CounterVec // labels: asset
	SignalsTotal   *prometheus.CounterVec // labels: asset, kind
	DupesSkipped   *prometheus.CounterVec // labels: asset
	NotifyErrors   prometheus.Counter
	JournalErrors  prometheus.Counter
	PublishErrors  prometheus.Counter
	FetchDur       prometheus.Histogram
	EvalDur        prometheus.Histogram
	LastRSI        *prometheus.GaugeVec // labels: asset
	CycleDur       prometheus.Histogram
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpdbot_cycles_total",
			Help: "Total evaluation cycles completed",
		}),
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpdbot_checks_total",
			Help: "Total per-asset evaluations",
		}, []string{"asset"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpdbot_fetch_errors_total",
			Help: "Candle fetch failures",
		}, []string{"asset", "source"}),
		EmptySeries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpdbot_empty_series_total",
			Help: "Fetches that returned no candles",
		}, []string{"asset"}),
		InvalidSeries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpdbot_invalid_series_total",
			Help: "Fetches rejected by series validation",
		}, []string{"asset"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpdbot_signals_total",
			Help: "Novel signals emitted (by asset and kind)",
		}, []string{"asset", "kind"}),
		DupesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpdbot_duplicate_signals_skipped_total",
			Help: "Signals suppressed by the dedup gate",
		}, []string{"asset"}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpdbot_notify_errors_total",
			Help: "Alert delivery failures",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpdbot_journal_errors_total",
			Help: "SQLite journal write failures",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpdbot_publish_errors_total",
			Help: "Redis publish failures",
		}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rpdbot_fetch_duration_seconds",
			Help:    "Candle fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		EvalDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rpdbot_eval_duration_seconds",
			Help:    "Signal evaluation latency per asset",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		}),
		LastRSI: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rpdbot_last_anchor_rsi",
			Help: "RSI at the anchor bar of the last evaluation",
		}, []string{"asset"}),
		CycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rpdbot_cycle_duration_seconds",
			Help:    "Full evaluation cycle latency",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.ChecksTotal,
		m.FetchErrors,
		m.EmptySeries,
		m.InvalidSeries,
		m.SignalsTotal,
		m.DupesSkipped,
		m.NotifyErrors,
		m.JournalErrors,
		m.PublishErrors,
		m.FetchDur,
		m.EvalDur,
		m.LastRSI,
		m.CycleDur,
	)

	return m
}
