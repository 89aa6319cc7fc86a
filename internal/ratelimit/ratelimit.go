// Package ratelimit provides a generic token bucket rate limiter.
// It is used to throttle outbound API calls such as embedding requests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter implements a token bucket rate limiter.
// It is safe for concurrent use.
//
// The token bucket algorithm:
//   - Tokens are added to the bucket at a constant rate (refillRate per second)
//   - The bucket has a maximum capacity (maxTokens)
//   - Each request consumes one token
//   - If no tokens are available, the request is either rejected or waits
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// New creates a new rate limiter.
//
// Parameters:
//   - maxTokens: maximum number of tokens in the bucket (burst capacity)
//   - refillRate: number of tokens to add per second
func New(maxTokens, refillRate float64) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// NewPerMinute creates a rate limiter based on requests per minute.
// It automatically converts to per-second rate and sets a reasonable burst size.
//
// The burst size is set to 2 seconds worth of tokens to allow small bursts.
func NewPerMinute(requestsPerMinute float64) *Limiter {
	perSecond := requestsPerMinute / 60
	return &Limiter{
		tokens:     perSecond,     // Start with 1 second of tokens
		maxTokens:  perSecond * 2, // Allow 2 seconds burst
		refillRate: perSecond,
		lastRefill: time.Now(),
	}
}

// refill adds tokens based on elapsed time since last refill.
// Must be called with mu held.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()

	l.tokens += elapsed * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now
}

// Allow checks if a request is allowed based on rate limit.
// Returns true if allowed (token consumed), false otherwise.
// This method is non-blocking.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()

	if l.tokens >= 1.0 {
		l.tokens -= 1.0
		return true
	}

	return false
}

// Wait blocks until a token is available or the context is canceled.
// Returns nil if a token was acquired, or ctx.Err() if canceled.
//
// This method is more efficient than polling Allow() as it calculates
// the exact wait time needed.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.refill()

		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}

		// Calculate wait time for next token
		waitTime := time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
			// Retry the loop to acquire token
		}
	}
}

// Available returns the current number of available tokens.
// This is useful for monitoring and debugging.
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens
}

// Reset resets the limiter to full capacity.
// Useful for testing or when rate limit conditions change.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens = l.maxTokens
	l.lastRefill = time.Now()
}
