package llmobs

import (
	"context"
	"time"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/trace"
)

// observableReasoner wraps a Reasoner with logging and tracing
type observableReasoner struct {
	name     string
	reasoner interfaces.Reasoner
}

var _ interfaces.Reasoner = (*observableReasoner)(nil)

func Wrap(name string, reasoner interfaces.Reasoner) interfaces.Reasoner {
	return &observableReasoner{name: name, reasoner: reasoner}
}

func (ob *observableReasoner) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	// DebugSkip(1) reports the actual caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting analysis",
		"provider", ob.name,
		"prompt_chars", len(user),
	)

	start := time.Now()
	text, err := ob.reasoner.Complete(ctx, system, user)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Analysis request failed", err,
			"provider", ob.name,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		trace.RecordError(ctx, err)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Analysis received",
		"provider", ob.name,
		"response_chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
