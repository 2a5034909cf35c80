// Package ledger owns the durable trade history and its derived performance summary.
//
// Profit/loss follows a position-agnostic convention: a SELL books +price*qty and a BUY
// books -price*qty. It does not net buys against later sells, so totals are cash-flow
// signs rather than realized gains. The summary is recomputed from the full record list
// on every read and every save; it is never patched incrementally.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

var ErrNotTradable = errors.New("only BUY and SELL records can be appended")

var hundred = decimal.NewFromInt(100)

type Ledger struct {
	mu      sync.Mutex
	store   interfaces.LedgerStore
	records []types.TradeRecord
	now     func() time.Time
}

type Option func(*Ledger)

// WithClock overrides the time source used for record and summary timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Open loads existing records. A missing, unreadable or corrupt store yields an empty ledger.
func Open(ctx context.Context, store interfaces.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now}
	for _, o := range opts {
		o(l)
	}

	records, err := store.Load(ctx)
	if err != nil {
		logger.Warn(ctx, "Ledger store unreadable, starting with empty history", "error", err)
		records = nil
	}
	l.records = records
	logger.Info(ctx, "Ledger opened", "records", len(l.records))
	return l
}

// ProfitLoss applies the sign convention: SELL is +price*qty, BUY is -price*qty.
func ProfitLoss(action types.Action, price, qty decimal.Decimal) decimal.Decimal {
	v := price.Mul(qty)
	switch action {
	case types.ActionSell:
		return v
	case types.ActionBuy:
		return v.Neg()
	default:
		return decimal.Zero
	}
}

// ComputeSummary derives the performance summary from the complete ordered record list.
func ComputeSummary(records []types.TradeRecord, now time.Time) types.PerformanceSummary {
	s := types.PerformanceSummary{
		TotalProfitLoss:   decimal.Zero,
		AverageProfitLoss: decimal.Zero,
		WinRate:           decimal.Zero,
		LastUpdated:       now,
	}
	wins := 0
	for _, r := range records {
		s.TotalTrades++
		switch r.Action {
		case types.ActionBuy:
			s.BuyTrades++
		case types.ActionSell:
			s.SellTrades++
		}
		s.TotalProfitLoss = s.TotalProfitLoss.Add(r.ProfitLoss)
		if r.ProfitLoss.IsPositive() {
			wins++
		}
	}
	if s.TotalTrades > 0 {
		n := decimal.NewFromInt(int64(s.TotalTrades))
		s.AverageProfitLoss = s.TotalProfitLoss.Div(n)
		s.WinRate = decimal.NewFromInt(int64(wins)).Mul(hundred).Div(n)
	}
	return s
}

// Append derives the record's P/L, then persists the full history and a fresh summary
// as one unit. If the save fails the in-memory history is left unchanged.
func (l *Ledger) Append(ctx context.Context, rec types.TradeRecord) (types.TradeRecord, error) {
	if rec.Action != types.ActionBuy && rec.Action != types.ActionSell {
		return rec, fmt.Errorf("%w: got %q", ErrNotTradable, rec.Action)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.Time.IsZero() {
		rec.Time = l.now()
	}
	rec.ProfitLoss = ProfitLoss(rec.Action, rec.Price, rec.Quantity)

	next := make([]types.TradeRecord, len(l.records), len(l.records)+1)
	copy(next, l.records)
	next = append(next, rec)

	summary := ComputeSummary(next, l.now())
	if err := l.store.Save(ctx, next, summary); err != nil {
		return rec, fmt.Errorf("persist ledger: %w", err)
	}
	l.records = next

	logger.Info(ctx, "Trade recorded",
		"action", rec.Action,
		"price", rec.Price.String(),
		"quantity", rec.Quantity.String(),
		"profit_loss", rec.ProfitLoss.String(),
		"total_trades", summary.TotalTrades,
		"total_profit_loss", summary.TotalProfitLoss.StringFixed(2),
	)
	return rec, nil
}

// Recent returns up to n most recent records, oldest first.
func (l *Ledger) Recent(n int) []types.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || len(l.records) == 0 {
		return []types.TradeRecord{}
	}
	if n > len(l.records) {
		n = len(l.records)
	}
	out := make([]types.TradeRecord, n)
	copy(out, l.records[len(l.records)-n:])
	return out
}

func (l *Ledger) Records() []types.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.TradeRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Ledger) Summary() types.PerformanceSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ComputeSummary(l.records, l.now())
}
