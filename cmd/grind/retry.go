package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultRetryLimit = 3

// retrySettings bounds the produce-and-parse attempt cycle within one
// iteration.
type retrySettings struct {
	Limit       int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

func (s retrySettings) limit() int {
	if s.Limit <= 0 {
		return defaultRetryLimit
	}
	return s.Limit
}

func (s retrySettings) policy() backoff.BackOff {
	if s.BackoffBase <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.BackoffBase
	b.MaxInterval = s.BackoffMax
	b.MaxElapsedTime = 0
	return b
}

// produceFunc obtains one raw agent output. It is invoked once per attempt.
type produceFunc func(ctx context.Context) (string, error)

// attemptGeneration runs produce and parses its output, retrying on parse
// failure or invocation error up to the attempt limit. It returns the last
// ParseResult (success or failure) and the number of attempts consumed.
// The error is non-nil only when the context ended the cycle early.
func attemptGeneration(ctx context.Context, produce produceFunc, settings retrySettings) (ParseResult, int, error) {
	limit := settings.limit()
	policy := settings.policy()

	var last ParseResult
	for attempt := 1; attempt <= limit; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, attempt - 1, err
		}

		raw, err := produce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return last, attempt, ctx.Err()
			}
			last = ParseResult{Reason: fmt.Sprintf("agent invocation failed: %v", err)}
		} else {
			last = parseAgentOutput(raw)
			if last.OK {
				return last, attempt, nil
			}
		}

		slog.Warn("attempt failed", "attempt", attempt, "limit", limit, "reason", last.Reason)
		if attempt == limit {
			break
		}
		if err := sleepCtx(ctx, policy.NextBackOff()); err != nil {
			return last, attempt, err
		}
	}
	return last, limit, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
