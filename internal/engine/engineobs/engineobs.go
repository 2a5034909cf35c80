package engineobs

import (
	"context"
	"time"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/trace"
	"signal-trader/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) RunCycle(ctx context.Context) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.RunCycle")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting trading cycle")

	result, err := oe.engine.RunCycle(ctx)
	if err != nil {
		fields := []any{"duration_ms", time.Since(start).Milliseconds()}
		if result != nil {
			fields = append(fields, "cycle_id", result.CycleID, "action", result.Decision.Action)
		}
		logger.ErrorWithErrSkip(ctx, 1, "Trading cycle failed", err, fields...)
		return result, err
	}

	logger.InfoSkip(ctx, 1, "Trading cycle completed",
		"cycle_id", result.CycleID,
		"symbol", result.Symbol,
		"action", result.Decision.Action,
		"confidence", result.Decision.Confidence,
		"traded", result.Trade != nil,
		"degraded", result.Degraded,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
