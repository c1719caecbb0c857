package retry

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// Policy bounds the retry loop
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultPolicy is tuned for short store write conflicts
var DefaultPolicy = Policy{
	InitialInterval: 25 * time.Millisecond,
	MaxInterval:     250 * time.Millisecond,
	MaxElapsedTime:  2 * time.Second,
}

// Do runs op until it succeeds, returns a non-retryable error, or the policy
// gives up. Only errors for which retryable returns true are retried.
func Do(ctx context.Context, p Policy, retryable func(error) bool, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	bo.MaxElapsedTime = p.MaxElapsedTime

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if retryable == nil || !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}
