package ratelimit

import (
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestTokenBucketBurstThenRefill(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tb := newTokenBucketAt(3, 1.0, clock.now)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d within burst capacity should be allowed", i+1)
		}
	}
	if tb.Allow() {
		t.Fatal("request beyond burst capacity should be limited")
	}

	clock.advance(1 * time.Second)
	if !tb.Allow() {
		t.Fatal("one token should be back after one second at 1 rps")
	}
	if tb.Allow() {
		t.Fatal("only one token should have refilled")
	}
}

func TestTokenBucketRefillNeverExceedsCapacity(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tb := newTokenBucketAt(2, 10.0, clock.now)

	clock.advance(1 * time.Hour)

	allowed := 0
	for i := 0; i < 5; i++ {
		if tb.Allow() {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("allowed %d requests after a long idle period, want capacity 2", allowed)
	}
}

func TestTokenBucketReset(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tb := newTokenBucketAt(1, 0.001, clock.now)

	if !tb.Allow() {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	tb.Reset()
	if !tb.Allow() {
		t.Fatal("request after reset should be allowed")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiterAt(1, 0.001, 0, clock.now)

	verifier := "10.0.0.1:POST */sms-otp/verify"
	if !rl.Allow(verifier) {
		t.Fatal("first verification attempt should be allowed")
	}
	if rl.Allow(verifier) {
		t.Fatal("second attempt from the same client should be limited")
	}
	if !rl.Allow("10.0.0.2:POST */sms-otp/verify") {
		t.Fatal("another client must get its own attempt budget")
	}

	stats := rl.GetStats()
	if stats.ActiveBuckets != 2 {
		t.Fatalf("ActiveBuckets = %d, want 2", stats.ActiveBuckets)
	}
	if stats.TotalCapacity != 1 {
		t.Fatalf("TotalCapacity = %d, want 1", stats.TotalCapacity)
	}
}

func TestRateLimiterResetKey(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiterAt(1, 0.001, 0, clock.now)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("client should be limited")
	}

	rl.Reset("10.0.0.1")
	if !rl.Allow("10.0.0.1") {
		t.Fatal("request after reset should be allowed")
	}

	// Resetting an unknown key is a no-op.
	rl.Reset("10.9.9.9")
}

func TestRateLimiterSweepDropsIdleBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiterAt(5, 1.0, time.Minute, clock.now)

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	clock.advance(2 * time.Minute)
	rl.Allow("10.0.0.2")
	rl.sweep(clock.now())

	stats := rl.GetStats()
	if stats.ActiveBuckets != 1 {
		t.Fatalf("ActiveBuckets = %d after sweep, want only the active client", stats.ActiveBuckets)
	}
	if !rl.Allow("10.0.0.1") {
		t.Fatal("a swept client should start over with a fresh bucket")
	}
}
