package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks failures to reach a remote backend (Redis). Local file
// errors are returned as they are.
var ErrNetwork = errors.New("network error")

// Backoff for RetryWithBackoff: retryAttempts calls, waiting retryDelay,
// then twice that, between them.
var (
	retryAttempts = 3
	retryDelay    = time.Second
)

// RetryableError marks a transient backend error, such as a dropped Redis
// connection, that RetryWithBackoff may try again.
type RetryableError struct{ Err error }

// Retryable marks err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or anything it wraps, was marked with
// Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn until it succeeds, returns an error not marked
// Retryable, or runs out of attempts. Waiting between attempts stops early
// with ctx.Err() when ctx is done.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	wait := retryDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}
