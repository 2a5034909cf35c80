// Package retry holds the bounded fixed-delay policy used for flaky upstream sources.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"signal-trader/internal/logger"
)

// ErrEmpty marks an attempt that succeeded but produced nothing usable.
var ErrEmpty = errors.New("empty result")

type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

func Default() Policy {
	return Policy{MaxAttempts: 3, Delay: 60 * time.Second}
}

func (p Policy) attempts() uint {
	if p.MaxAttempts < 1 {
		return 1
	}
	return uint(p.MaxAttempts)
}

// Do runs op until it succeeds or MaxAttempts is reached, waiting Delay between attempts.
// It returns the number of attempts made. No wait follows the final attempt.
func Do[T any](ctx context.Context, p Policy, name string, op func(context.Context) (T, error)) (T, int, error) {
	attempts := 0
	res, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		return op(ctx)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(p.attempts()),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn(ctx, "Attempt failed, retrying",
				"source", name,
				"attempt", attempts,
				"max_attempts", p.MaxAttempts,
				"wait", wait.String(),
				"error", err,
			)
		}),
	)
	return res, attempts, err
}

// Collect retries fetch on errors and on empty results. Once attempts are exhausted it
// returns an empty slice instead of an error.
func Collect[T any](ctx context.Context, p Policy, name string, fetch func(context.Context) ([]T, error)) ([]T, int) {
	items, attempts, err := Do(ctx, p, name, func(ctx context.Context) ([]T, error) {
		out, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, ErrEmpty
		}
		return out, nil
	})
	if err != nil {
		logger.Warn(ctx, "Retries exhausted, continuing with empty result",
			"source", name,
			"attempts", attempts,
			"error", err,
		)
		return []T{}, attempts
	}
	return items, attempts
}
