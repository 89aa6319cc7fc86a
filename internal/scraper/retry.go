package scraper

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// permanentError marks an error that must not be retried (404, 403, 401).
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so RetryWithBackoff returns it immediately.
func Permanent(err error) error {
	return &permanentError{err: err}
}

// RetryWithBackoff retries a function with exponential backoff and jitter.
// Stops immediately when fn returns a Permanent error.
//
// maxRetries: maximum number of retry attempts (0 = no retry, just try once)
// initialDelay: initial delay before first retry
//
// Backoff formula: delay = initialDelay * 2^attempt ± 25% jitter
func RetryWithBackoff(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var permErr *permanentError
		if errors.As(err, &permErr) {
			return permErr.Unwrap()
		}

		// Don't delay after the last attempt
		if attempt == maxRetries {
			break
		}

		delay := time.Duration(float64(initialDelay) * math.Pow(2, float64(attempt)))

		// Add jitter (±25%)
		var b [8]byte
		_, _ = rand.Read(b[:])
		jitterValue := int64(binary.LittleEndian.Uint64(b[:]))
		if jitterValue < 0 {
			jitterValue = -jitterValue
		}
		half := int64(delay) / 2
		if half == 0 {
			half = 1
		}
		jitter := time.Duration(jitterValue % half)
		delay = delay - delay/4 + jitter

		select {
		case <-time.After(delay):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// Sleep waits for the specified duration, respecting context cancellation
func Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
