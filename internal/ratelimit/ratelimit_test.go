package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowConsumesTokens(t *testing.T) {
	t.Parallel()

	l := New(2, 0.001) // effectively no refill during test

	if !l.Allow() {
		t.Fatal("first request should be allowed")
	}
	if !l.Allow() {
		t.Fatal("second request should be allowed")
	}
	if l.Allow() {
		t.Fatal("third request should be rejected, bucket empty")
	}
}

func TestWaitRespectsContext(t *testing.T) {
	t.Parallel()

	l := New(1, 0.001)
	if !l.Allow() {
		t.Fatal("setup: first token should be available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if err == nil {
		t.Fatal("Wait should fail when context expires before a token refills")
	}
}

func TestRefillOverTime(t *testing.T) {
	t.Parallel()

	l := New(1, 100) // fast refill for test
	if !l.Allow() {
		t.Fatal("setup: first token should be available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait should succeed after refill: %v", err)
	}
}

func TestNewPerMinute(t *testing.T) {
	t.Parallel()

	l := NewPerMinute(600) // 10/sec
	if got := l.Available(); got < 9 || got > 21 {
		t.Errorf("Available() = %v, want roughly 10 (1s of tokens)", got)
	}

	l.Reset()
	if got := l.Available(); got < 19 || got > 21 {
		t.Errorf("after Reset, Available() = %v, want max capacity ~20", got)
	}
}
