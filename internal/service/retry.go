package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"quizquest/internal/models"
)

const writeMaxTries = 4

// newWriteBackOff is replaceable in tests.
var newWriteBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	return b
}

// retryWrite retries a reward-affecting store write with exponential
// backoff. Malformed documents and cancelled contexts are not retried.
func retryWrite[T any](ctx context.Context, write func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		result, err := write()
		if err != nil && isPermanent(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, backoff.WithBackOff(newWriteBackOff()), backoff.WithMaxTries(writeMaxTries))
}

func isPermanent(err error) bool {
	var blocked *RetryBlockedError
	return errors.Is(err, models.ErrMalformedDocument) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrChapterAlreadyPassed) ||
		errors.Is(err, ErrInvalidScore) ||
		errors.As(err, &blocked)
}
