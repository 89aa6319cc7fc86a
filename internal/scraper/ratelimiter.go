package scraper

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// RateLimiter enforces a randomized polite delay between consecutive
// requests so department servers see human-paced traffic. Requests are
// serialized; the delay is drawn uniformly from [minDelay, maxDelay].
type RateLimiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	maxDelay time.Duration
	lastReq  time.Time
}

// NewRateLimiter creates a rate limiter with the given delay bounds.
// If maxDelay <= minDelay the delay is fixed at minDelay.
func NewRateLimiter(minDelay, maxDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Wait blocks until enough time has passed since the previous request,
// or until the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delay := r.randomDelay()
	elapsed := time.Since(r.lastReq)
	if wait := delay - elapsed; wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.lastReq = time.Now()
	return nil
}

func (r *RateLimiter) randomDelay() time.Duration {
	spread := r.maxDelay - r.minDelay
	if spread <= 0 {
		return r.minDelay
	}

	var b [8]byte
	_, _ = rand.Read(b[:])
	n := int64(binary.LittleEndian.Uint64(b[:]))
	if n < 0 {
		n = -n
	}
	return r.minDelay + time.Duration(n%int64(spread))
}
