package interfaces

import (
	"context"
	"time"

	"signal-trader/internal/types"
)

type MarketData interface {
	Ticker(ctx context.Context, symbol string) (types.Ticker, error)
	HistoricalCandles(ctx context.Context, symbol, interval string, since time.Time) ([]types.Candle, error)
}

// NewsSource returns the provider's raw JSON; shape normalization happens downstream.
type NewsSource interface {
	Name() string
	Search(ctx context.Context, query string, from, to time.Time) ([]byte, error)
}

type SocialSource interface {
	Search(ctx context.Context, query string, from, to time.Time) ([]byte, error)
}

// SignalGatherer collects one cycle's worth of inputs. Degraded lists the sources that came back empty.
type SignalGatherer interface {
	Gather(ctx context.Context, asset string, lookback time.Duration) (snapshot types.MarketSnapshot, news []types.NewsItem, sentiment []types.SentimentSample, degraded []string)
}
