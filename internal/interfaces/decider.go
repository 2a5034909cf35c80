package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"signal-trader/internal/types"
)

// Reasoner is a text generation provider.
type Reasoner interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Decider interface {
	Decide(ctx context.Context, snapshot types.MarketSnapshot, news []types.NewsItem, sentiment []types.SentimentSample, history []types.TradeRecord) types.Decision
}

type Executor interface {
	Execute(ctx context.Context, decision types.Decision, asset string, qty decimal.Decimal) (*types.TradeRecord, error)
}
