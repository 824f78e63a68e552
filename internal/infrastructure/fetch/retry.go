package fetch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryPolicy bounds repeated attempts against a flaky upstream. Transient
// failures (network errors, timeouts) are retried with exponential backoff;
// anything wrapped in backoff.Permanent ends the attempt immediately.
type retryPolicy struct {
	attempts uint64
	initial  time.Duration
}

func (p retryPolicy) run(ctx context.Context, op backoff.Operation) error {
	if p.attempts == 0 {
		p.attempts = 3
	}
	if p.initial <= 0 {
		p.initial = time.Second
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.initial
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = 30 * time.Second
	exp.MaxElapsedTime = 0
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(exp, p.attempts-1), ctx))
}
