// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package engine

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
)

// retryPolicy is the leaf-retry policy threaded down from Config:
// Attempts tries total, waiting Backoff×attempt between each, and each
// individual attempt is itself bounded by CallTimeout (zero means
// unbounded, left to ctx alone).
type retryPolicy struct {
	Attempts    int
	Backoff     time.Duration
	CallTimeout time.Duration
	Clock       clock.Clock
}

// call runs fn under the retry policy, bailing out immediately once
// ctx is cancelled rather than spending the remaining attempts against
// a connection that is never coming back. Each attempt gets its own
// context, bounded by CallTimeout if set. onAttempt, if non-nil, is
// notified after every failed attempt.
func (p retryPolicy) call(ctx context.Context, fn func(context.Context) error, onAttempt func(err error, attempt int)) error {
	return retry.Call(retry.CallArgs{
		Func: func() error {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			attemptCtx := ctx
			if p.CallTimeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, p.CallTimeout)
				defer cancel()
			}
			return fn(attemptCtx)
		},
		IsFatalError: func(err error) bool {
			cause := errors.Cause(err)
			return cause == context.Canceled || cause == context.DeadlineExceeded
		},
		NotifyFunc: onAttempt,
		Attempts:   p.Attempts,
		Delay:      p.Backoff,
		BackoffFunc: func(delay time.Duration, attempt int) time.Duration {
			return p.Backoff * time.Duration(attempt)
		},
		Clock: p.Clock,
	})
}
