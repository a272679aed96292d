package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable marks a backend that could not be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

// Retry policy of the Redis backend.
var (
	retryAttempts = 3
	retryDelay    = 200 * time.Millisecond
)

// transientError is a failure worth another attempt.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// classify marks connection failures as transient. A redis.Nil miss passes
// through untouched.
func classify(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &transientError{fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	return err
}

// withRetry runs op until it succeeds, fails permanently or runs out of
// attempts, doubling the delay between attempts.
func withRetry(ctx context.Context, op func() error) error {
	delay := retryDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = op(); err == nil || !isTransient(err) || attempt == retryAttempts {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
