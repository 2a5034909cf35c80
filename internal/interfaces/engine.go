package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

type Engine interface {
	RunCycle(ctx context.Context) (*types.CycleResult, error)
}
