package fetch

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v5"
)

const (
	// DefaultMaxAttempts is the number of tries per outbound call.
	DefaultMaxAttempts = 3
	// DefaultInitialDelay is the delay before the second try; it doubles
	// for every further try.
	DefaultInitialDelay = time.Second
)

// RetryPolicy bounds the retries of one outbound call.
type RetryPolicy struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	// Notify, when set, is called before each delay.
	Notify func(err error, delay time.Duration)
}

// DefaultRetryPolicy is 3 attempts with 1s, 2s delays.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, InitialDelay: DefaultInitialDelay}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.InitialDelay << 10
	return b
}

// Retry runs op until it succeeds, fails with a non-retryable error, or the
// policy's attempts are exhausted, in which case the last error is
// returned. Cancellation stops immediately, including during a delay, and
// returns the context error.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = 1
	}

	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy.backOff()),
		backoff.WithMaxTries(policy.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
	}
	if policy.Notify != nil {
		opts = append(opts, backoff.WithNotify(backoff.Notify(policy.Notify)))
	}

	res, err := backoff.Retry(ctx, func() (T, error) {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return res, backoff.Permanent(ctx.Err())
		}
		if !IsRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, opts...)

	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		return res, err
	}
	return res, nil
}
