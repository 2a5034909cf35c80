// Package broker holds the simulated order path used in DRY_RUN mode.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

// Paper fills every market order at the current last price without touching the exchange.
type Paper struct {
	md  interfaces.MarketData
	now func() time.Time
}

var _ interfaces.Broker = (*Paper)(nil)

func NewPaper(md interfaces.MarketData) *Paper {
	return &Paper{md: md, now: time.Now}
}

func (p *Paper) PlaceMarketOrder(ctx context.Context, req types.OrderReq) (types.Fill, error) {
	logger.Debug(ctx, "Placing simulated order", "symbol", req.Symbol, "side", req.Side, "qty", req.Qty.String())

	if req.Side != types.ActionBuy && req.Side != types.ActionSell {
		return types.Fill{}, fmt.Errorf("unsupported order side %q", req.Side)
	}
	if !req.Qty.IsPositive() {
		return types.Fill{}, errors.New("order quantity must be positive")
	}

	t, err := p.md.Ticker(ctx, req.Symbol)
	if err != nil {
		return types.Fill{}, fmt.Errorf("price for simulated fill: %w", err)
	}
	if t.LastPrice <= 0 {
		return types.Fill{}, fmt.Errorf("no usable price for %s", req.Symbol)
	}

	now := p.now()
	fill := types.Fill{
		OrderID:  fmt.Sprintf("SIM-%d", now.UnixNano()),
		Status:   "SIMULATED",
		Price:    decimal.NewFromFloat(t.LastPrice),
		Quantity: req.Qty,
		Time:     now,
	}
	logger.Info(ctx, "Simulated order placed", "symbol", req.Symbol, "side", req.Side, "qty", req.Qty.String(), "order_id", fill.OrderID)
	return fill, nil
}
