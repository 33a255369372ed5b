package retry

import (
	"context"
	"time"
)

// Policy is an explicit retry/backoff policy passed into the fetch path.
// Backoff doubles from BackoffMin up to BackoffMax between attempts.
type Policy struct {
	MaxAttempts int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	Retryable   func(error) bool
}

// Do runs op until it succeeds, the error is not retryable, or attempts are
// exhausted. The last error is returned unchanged so callers can classify it.
func (p *Policy) Do(ctx context.Context, op func(context.Context) error) error {
	backoff := p.BackoffMin
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxAttempts || p.Retryable == nil || !p.Retryable(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if p.BackoffMax > 0 && backoff > p.BackoffMax {
			backoff = p.BackoffMax
		}
	}
}
