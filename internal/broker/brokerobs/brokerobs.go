package brokerobs

import (
	"context"
	"time"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/trace"
	"signal-trader/internal/types"
)

// observableBroker wraps a Broker with logging and tracing
type observableBroker struct {
	broker interfaces.Broker
}

var _ interfaces.Broker = (*observableBroker)(nil)

func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

func (ob *observableBroker) PlaceMarketOrder(ctx context.Context, req types.OrderReq) (types.Fill, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceMarketOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Qty.String(),
		"client_order_id", req.ClientOrderID,
	)

	fill, err := ob.broker.PlaceMarketOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Qty.String(),
		)
		trace.RecordError(ctx, err)
		return types.Fill{}, err
	}

	logger.Trade(ctx, req.Symbol, string(req.Side), fill.Quantity.String(), fill.Price.String(), fill.OrderID, "status", fill.Status)
	return fill, nil
}

// observableMarket wraps MarketData with logging and tracing
type observableMarket struct {
	md interfaces.MarketData
}

var _ interfaces.MarketData = (*observableMarket)(nil)

func WrapMarket(md interfaces.MarketData) interfaces.MarketData {
	return &observableMarket{md: md}
}

func (om *observableMarket) Ticker(ctx context.Context, symbol string) (types.Ticker, error) {
	ctx, span := trace.StartSpan(ctx, "market.Ticker")
	defer span.End()

	t, err := om.md.Ticker(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch ticker", err, "symbol", symbol)
		trace.RecordError(ctx, err)
		return types.Ticker{}, err
	}
	logger.DebugSkip(ctx, 1, "Ticker fetched", "symbol", symbol, "last_price", t.LastPrice)
	return t, nil
}

func (om *observableMarket) HistoricalCandles(ctx context.Context, symbol, interval string, since time.Time) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "market.HistoricalCandles")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching candles", "symbol", symbol, "interval", interval, "since", since)

	candles, err := om.md.HistoricalCandles(ctx, symbol, interval, since)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candles", err, "symbol", symbol, "interval", interval)
		trace.RecordError(ctx, err)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Candles fetched successfully", "symbol", symbol, "count", len(candles))
	return candles, nil
}
