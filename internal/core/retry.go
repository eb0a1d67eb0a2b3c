package core

import (
	"context"
	"errors"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"pangea-projects/internal/ports"
)

const (
	defaultVCSAttempts       = 2
	defaultVCSRetryDelay     = 5 * time.Second
	defaultVCSAttemptTimeout = 15 * time.Minute

	defaultListAttempts       = 3
	defaultListRetryDelay     = 2 * time.Second
	defaultListAttemptTimeout = 5 * time.Minute
)

// RetryPolicy bounds network transactions: a fixed delay between
// attempts and a deadline per attempt. Missing branches are never
// retried, nor is any error Permanent reports.
type RetryPolicy struct {
	Attempts       int
	Delay          time.Duration
	AttemptTimeout time.Duration
	Permanent      func(err error) bool
	OnRetry        func(operation string)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       defaultVCSAttempts,
		Delay:          defaultVCSRetryDelay,
		AttemptTimeout: defaultVCSAttemptTimeout,
	}
}

// DefaultListRetryPolicy retries repository listings. Not-found and
// invalid-argument errors are final.
func DefaultListRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       defaultListAttempts,
		Delay:          defaultListRetryDelay,
		AttemptTimeout: defaultListAttemptTimeout,
		Permanent:      permanentListError,
	}
}

func permanentListError(err error) bool {
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeNotFound, errbuilder.CodeInvalidArgument:
		return true
	}
	return false
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = defaultVCSAttempts
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = defaultVCSAttemptTimeout
	}
	return p
}

func (p RetryPolicy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	policy := p.normalized()
	attempt := 0
	op := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout)
		defer cancel()
		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ports.ErrBranchNotFound) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		if policy.Permanent != nil && policy.Permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("transaction failed, retrying")
		if policy.OnRetry != nil {
			policy.OnRetry(operation)
		}
	}
	strategy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Delay), uint64(policy.Attempts-1)),
		ctx,
	)
	return backoff.RetryNotify(op, strategy, notify)
}
