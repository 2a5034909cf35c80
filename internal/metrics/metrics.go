// Package metrics holds the Prometheus collectors for the trading loop. There is no
// scrape endpoint; the registry is written to a node_exporter textfile after each cycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"signal-trader/internal/types"
)

const namespace = "signal_trader"

type Metrics struct {
	Registry *prometheus.Registry

	CyclesTotal     *prometheus.CounterVec
	SkippedTicks    prometheus.Counter
	CycleDuration   prometheus.Histogram
	DecisionsTotal  *prometheus.CounterVec
	OrdersTotal     *prometheus.CounterVec
	DegradedSources *prometheus.CounterVec

	LedgerTrades   prometheus.Gauge
	LedgerPnL      prometheus.Gauge
	LedgerWinRate  prometheus.Gauge
	LastCycleEpoch prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed trading cycles by outcome",
		}, []string{"outcome"}),
		SkippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_ticks_total",
			Help:      "Ticks dropped because a cycle was still running",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a full cycle",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Decisions by action",
		}, []string{"action"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Market orders by side and result",
		}, []string{"side", "result"}),
		DegradedSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_sources_total",
			Help:      "Signal sources that came back empty",
		}, []string{"source"}),
		LedgerTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_trades",
			Help:      "Trades recorded in the ledger",
		}),
		LedgerPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_profit_loss",
			Help:      "Total ledger P/L in quote currency",
		}),
		LedgerWinRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_win_rate_percent",
			Help:      "Share of trades with positive P/L",
		}),
		LastCycleEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time the last cycle finished",
		}),
	}
	m.Registry.MustRegister(
		m.CyclesTotal, m.SkippedTicks, m.CycleDuration, m.DecisionsTotal,
		m.OrdersTotal, m.DegradedSources, m.LedgerTrades, m.LedgerPnL,
		m.LedgerWinRate, m.LastCycleEpoch,
	)
	return m
}

// ObserveCycle records one finished cycle.
func (m *Metrics) ObserveCycle(res *types.CycleResult, orderErr error) {
	if m == nil || res == nil {
		return
	}
	outcome := "ok"
	if res.Err != "" {
		outcome = "error"
	}
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(res.Finished.Sub(res.Started).Seconds())
	m.LastCycleEpoch.Set(float64(res.Finished.Unix()))
	m.DecisionsTotal.WithLabelValues(string(res.Decision.Action)).Inc()
	for _, s := range res.Degraded {
		m.DegradedSources.WithLabelValues(s).Inc()
	}
	if res.Decision.Action == types.ActionBuy || res.Decision.Action == types.ActionSell {
		result := "filled"
		if orderErr != nil || res.Trade == nil {
			result = "failed"
		}
		m.OrdersTotal.WithLabelValues(string(res.Decision.Action), result).Inc()
	}
}

func (m *Metrics) ObserveSummary(s types.PerformanceSummary) {
	if m == nil {
		return
	}
	m.LedgerTrades.Set(float64(s.TotalTrades))
	m.LedgerPnL.Set(s.TotalProfitLoss.InexactFloat64())
	m.LedgerWinRate.Set(s.WinRate.InexactFloat64())
}

func (m *Metrics) SkipTick() {
	if m == nil {
		return
	}
	m.SkippedTicks.Inc()
}

// WriteTextfile atomically writes the registry in text exposition format. An empty
// path disables the export.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
