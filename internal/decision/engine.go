// Package decision turns one cycle's signals into a BUY, SELL or HOLD decision.
package decision

import (
	"context"
	"fmt"
	"time"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

type Engine struct {
	reasoner interfaces.Reasoner
	system   string
	limits   Limits
	timeout  time.Duration
}

var _ interfaces.Decider = (*Engine)(nil)

// NewEngine builds a decider around a reasoning provider. A zero timeout leaves the
// caller's deadline in charge.
func NewEngine(reasoner interfaces.Reasoner, system string, limits Limits, timeout time.Duration) *Engine {
	return &Engine{reasoner: reasoner, system: system, limits: limits, timeout: timeout}
}

// Decide never fails: a provider error becomes HOLD with the error as the reasoning.
func (e *Engine) Decide(ctx context.Context, snap types.MarketSnapshot, news []types.NewsItem, sentiment []types.SentimentSample, history []types.TradeRecord) types.Decision {
	prompt := BuildPrompt(snap, news, sentiment, history, e.limits)

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	text, err := e.reasoner.Complete(callCtx, e.system, prompt)
	if err != nil {
		logger.Warn(ctx, "Reasoning provider failed, holding", "symbol", snap.Symbol, "error", err)
		return types.Decision{
			Action:    types.ActionHold,
			Reasoning: fmt.Sprintf("reasoning provider error: %v", err),
		}
	}

	d := ParseDecision(text)
	logger.Decision(ctx, snap.Symbol, string(d.Action), d.Confidence, d.Reasoning)
	return d
}
