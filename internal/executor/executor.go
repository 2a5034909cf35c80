// Package executor turns a decision into at most one market order.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

// ErrEmptyFill is returned when the broker reports a fill with no executed quantity.
var ErrEmptyFill = errors.New("order filled zero quantity")

type Executor struct {
	broker interfaces.Broker
	newID  func() string
}

var _ interfaces.Executor = (*Executor)(nil)

func New(broker interfaces.Broker) *Executor {
	return &Executor{broker: broker, newID: uuid.NewString}
}

// Execute places one market order for BUY or SELL and returns the resulting record.
// HOLD returns nil without touching the broker. Failed orders are not retried.
func (e *Executor) Execute(ctx context.Context, d types.Decision, asset string, qty decimal.Decimal) (*types.TradeRecord, error) {
	if d.Action != types.ActionBuy && d.Action != types.ActionSell {
		logger.Debug(ctx, "No order for decision", "symbol", asset, "action", d.Action)
		return nil, nil
	}

	req := types.OrderReq{
		Symbol:        asset,
		Side:          d.Action,
		Qty:           qty,
		ClientOrderID: e.newID(),
	}
	fill, err := e.broker.PlaceMarketOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("place %s order for %s: %w", d.Action, asset, err)
	}
	if !fill.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: order %s", ErrEmptyFill, fill.OrderID)
	}

	return &types.TradeRecord{
		Time:      fill.Time,
		Symbol:    asset,
		Action:    d.Action,
		Price:     fill.Price,
		Quantity:  fill.Quantity,
		OrderID:   fill.OrderID,
		Reasoning: d.Reasoning,
	}, nil
}
