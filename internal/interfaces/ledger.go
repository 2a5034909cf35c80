package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

// LedgerStore persists the full record sequence together with its summary.
type LedgerStore interface {
	Load(ctx context.Context) ([]types.TradeRecord, error)
	Save(ctx context.Context, records []types.TradeRecord, summary types.PerformanceSummary) error
}

// TradeLedger is the in-memory ledger view the cycle reads history from and appends to.
type TradeLedger interface {
	Recent(n int) []types.TradeRecord
	Append(ctx context.Context, rec types.TradeRecord) (types.TradeRecord, error)
	Summary() types.PerformanceSummary
}
