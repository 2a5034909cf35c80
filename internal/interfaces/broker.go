package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

// Broker places a single market order and reports the executed fill.
type Broker interface {
	PlaceMarketOrder(ctx context.Context, req types.OrderReq) (types.Fill, error)
}
