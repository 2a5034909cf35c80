// Package engine runs the trading cycle and the poll-driven schedule around it.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/metrics"
	"signal-trader/internal/tradelog"
	"signal-trader/internal/types"
)

type Config struct {
	Asset    string
	Quantity decimal.Decimal
	// Lookback is the news window handed to Gather.
	Lookback time.Duration
	History  int
	// MetricsTextfile is rewritten after every cycle when set.
	MetricsTextfile string
}

type Engine struct {
	cfg      Config
	gatherer interfaces.SignalGatherer
	decider  interfaces.Decider
	executor interfaces.Executor
	ledger   interfaces.TradeLedger
	journal  *tradelog.Journal
	metrics  *metrics.Metrics
	now      func() time.Time
}

var _ interfaces.Engine = (*Engine)(nil)

type Option func(*Engine)

func WithJournal(j *tradelog.Journal) Option { return func(e *Engine) { e.journal = j } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func New(cfg Config, g interfaces.SignalGatherer, d interfaces.Decider, x interfaces.Executor, l interfaces.TradeLedger, opts ...Option) *Engine {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 24 * time.Hour
	}
	if cfg.History <= 0 {
		cfg.History = 5
	}
	e := &Engine{cfg: cfg, gatherer: g, decider: d, executor: x, ledger: l, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RunCycle performs gather, decide, execute and record once. An order or ledger
// failure is returned for this cycle only; the result is always populated.
func (e *Engine) RunCycle(ctx context.Context) (*types.CycleResult, error) {
	res := &types.CycleResult{
		CycleID: uuid.NewString(),
		Symbol:  e.cfg.Asset,
		Started: e.now(),
	}
	ctx = logger.WithFields(ctx, "cycle_id", res.CycleID)

	snap, news, sentiment, degraded := e.gatherer.Gather(ctx, e.cfg.Asset, e.cfg.Lookback)
	res.Degraded = degraded

	history := e.ledger.Recent(e.cfg.History)
	d := e.decider.Decide(ctx, snap, news, sentiment, history)
	res.Decision = d

	e.journalDecision(ctx, res, snap, len(news), len(sentiment))

	var cycleErr error
	rec, execErr := e.executor.Execute(ctx, d, e.cfg.Asset, e.cfg.Quantity)
	if execErr != nil {
		cycleErr = fmt.Errorf("execute: %w", execErr)
		logger.ErrorWithErr(ctx, "Order execution failed", execErr, "symbol", e.cfg.Asset, "action", d.Action)
	} else if rec != nil {
		saved, err := e.ledger.Append(ctx, *rec)
		if err != nil {
			// the order is live at the exchange even though the ledger missed it
			cycleErr = fmt.Errorf("record trade %s: %w", rec.OrderID, err)
			logger.ErrorWithErr(ctx, "Failed to record executed trade", err, "order_id", rec.OrderID)
			res.Trade = rec
		} else {
			res.Trade = &saved
		}
	}

	res.Finished = e.now()
	if cycleErr != nil {
		res.Err = cycleErr.Error()
	}
	e.observe(ctx, res, execErr)
	return res, cycleErr
}

func (e *Engine) journalDecision(ctx context.Context, res *types.CycleResult, snap types.MarketSnapshot, headlines, posts int) {
	if e.journal == nil {
		return
	}
	entry := tradelog.Entry{
		CycleID:    res.CycleID,
		Symbol:     res.Symbol,
		Action:     string(res.Decision.Action),
		Confidence: res.Decision.Confidence,
		Reasoning:  res.Decision.Reasoning,
		Raw:        res.Decision.Raw,
		LastPrice:  snap.LastPrice,
		Change24h:  snap.Change24h,
		Headlines:  headlines,
		Posts:      posts,
		Degraded:   res.Degraded,
	}
	if err := e.journal.Append(entry); err != nil {
		logger.Warn(ctx, "Failed to journal decision", "error", err)
	}
}

func (e *Engine) observe(ctx context.Context, res *types.CycleResult, orderErr error) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveCycle(res, orderErr)
	e.metrics.ObserveSummary(e.ledger.Summary())
	if err := e.metrics.WriteTextfile(e.cfg.MetricsTextfile); err != nil {
		logger.Warn(ctx, "Failed to write metrics textfile", "path", e.cfg.MetricsTextfile, "error", err)
	}
}
