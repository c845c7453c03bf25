package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestRateLimiter(maxAttempts int) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		MaxAttempts:     maxAttempts,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
	})
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := newTestRateLimiter(3)
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		allowed, _ := rl.Allow("1.2.3.4", "alice")
		assert.True(t, allowed)
		rl.RecordFailure("1.2.3.4", "alice")
	}

	allowed, _ := rl.Allow("1.2.3.4", "alice")
	assert.True(t, allowed)
}

func TestRateLimiter_LocksAfterMaxFailures(t *testing.T) {
	rl := newTestRateLimiter(3)
	defer rl.Stop()

	var locked bool
	for i := 0; i < 3; i++ {
		locked, _ = rl.RecordFailure("1.2.3.4", "alice")
	}
	assert.True(t, locked)

	allowed, retryAfter := rl.Allow("1.2.3.4", "alice")
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newTestRateLimiter(2)
	defer rl.Stop()

	rl.RecordFailure("1.2.3.4", "alice")
	rl.RecordFailure("1.2.3.4", "alice")

	allowed, _ := rl.Allow("1.2.3.4", "alice")
	assert.False(t, allowed)

	// Different username, same IP
	allowed, _ = rl.Allow("1.2.3.4", "bob")
	assert.True(t, allowed)

	// Same username, different IP
	allowed, _ = rl.Allow("5.6.7.8", "alice")
	assert.True(t, allowed)
}

func TestRateLimiter_SuccessClearsRecord(t *testing.T) {
	rl := newTestRateLimiter(2)
	defer rl.Stop()

	rl.RecordFailure("1.2.3.4", "alice")
	rl.RecordSuccess("1.2.3.4", "alice")

	rl.RecordFailure("1.2.3.4", "alice")
	allowed, _ := rl.Allow("1.2.3.4", "alice")
	assert.True(t, allowed)
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     2,
		WindowDuration:  10 * time.Millisecond,
		LockoutDuration: 10 * time.Millisecond,
	})
	defer rl.Stop()

	rl.RecordFailure("1.2.3.4", "alice")
	rl.RecordFailure("1.2.3.4", "alice")

	allowed, _ := rl.Allow("1.2.3.4", "alice")
	assert.False(t, allowed)

	time.Sleep(25 * time.Millisecond)

	allowed, _ = rl.Allow("1.2.3.4", "alice")
	assert.True(t, allowed)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     2,
		WindowDuration:  time.Millisecond,
		LockoutDuration: time.Millisecond,
	})
	defer rl.Stop()

	rl.RecordFailure("1.2.3.4", "alice")
	time.Sleep(5 * time.Millisecond)

	rl.cleanup()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Empty(t, rl.attempts)
}
