package noop

import (
	"context"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
)

// Reasoner is the fallback used when no model provider is configured. It always answers HOLD.
type Reasoner struct{}

var _ interfaces.Reasoner = (*Reasoner)(nil)

func New() *Reasoner {
	return &Reasoner{}
}

func (Reasoner) Complete(ctx context.Context, system, user string) (string, error) {
	logger.Debug(ctx, "Noop reasoner called - always returns HOLD")
	return "Recommendation: HOLD\nReasoning: no reasoning provider configured\nConfidence: 0/10", nil
}
