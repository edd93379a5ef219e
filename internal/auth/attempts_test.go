package auth

import (
	"context"
	"testing"
)

func TestMemoryAttemptsLockout(t *testing.T) {
	limiter := NewMemoryAttempts()
	ctx := context.Background()

	if lock := limiter.CheckLock(ctx, "10.0.0.1"); lock != 0 {
		t.Fatalf("fresh ip must not be locked, got %v", lock)
	}

	var remaining int
	for i := 0; i < maxLoginAttempts; i++ {
		remaining = limiter.RecordFailure(ctx, "10.0.0.1")
	}
	if remaining != 0 {
		t.Fatalf("remaining attempts after lockout = %d, want 0", remaining)
	}
	if lock := limiter.CheckLock(ctx, "10.0.0.1"); lock <= 0 {
		t.Fatal("ip must be locked after max failures")
	}

	// 別IPは影響を受けない
	if lock := limiter.CheckLock(ctx, "10.0.0.2"); lock != 0 {
		t.Fatalf("other ip must not be locked, got %v", lock)
	}
}

func TestMemoryAttemptsReset(t *testing.T) {
	limiter := NewMemoryAttempts()
	ctx := context.Background()

	for i := 0; i < maxLoginAttempts; i++ {
		limiter.RecordFailure(ctx, "10.0.0.1")
	}
	limiter.Reset(ctx, "10.0.0.1")

	if lock := limiter.CheckLock(ctx, "10.0.0.1"); lock != 0 {
		t.Fatalf("reset must clear the lock, got %v", lock)
	}
	if remaining := limiter.RecordFailure(ctx, "10.0.0.1"); remaining != maxLoginAttempts-1 {
		t.Fatalf("remaining after reset = %d, want %d", remaining, maxLoginAttempts-1)
	}
}
