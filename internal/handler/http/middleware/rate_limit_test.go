package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestKeyedRateLimiter_EvictsIdleKeys(t *testing.T) {
	l := NewKeyedRateLimiter(rate.Every(time.Second), 2)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	first := l.GetLimiter("user:a")
	l.GetLimiter("user:b")
	assert.Same(t, first, l.GetLimiter("user:a"), "an active key keeps its bucket")

	now = now.Add(l.idleTimeout / 2)
	l.GetLimiter("user:b")

	now = now.Add(l.idleTimeout/2 + time.Second)
	l.GetLimiter("user:c")

	assert.NotContains(t, l.limiters, "user:a")
	assert.Contains(t, l.limiters, "user:b")
	assert.Contains(t, l.limiters, "user:c")
	assert.NotSame(t, first, l.GetLimiter("user:a"), "an evicted key starts a fresh bucket")
}

func TestKeyedRateLimiter_IdleTimeoutCoversRefill(t *testing.T) {
	assert.Equal(t, defaultIdleTimeout, NewKeyedRateLimiter(rate.Every(time.Second), 5).idleTimeout)
	assert.Equal(t, time.Hour, NewKeyedRateLimiter(rate.Limit(0.5), 1800).idleTimeout)
}

func TestKeyedRateLimiter_LimitsPerKey(t *testing.T) {
	l := NewKeyedRateLimiter(rate.Every(time.Hour), 1)

	assert.True(t, l.GetLimiter("user:a").Allow())
	assert.False(t, l.GetLimiter("user:a").Allow())
	assert.True(t, l.GetLimiter("user:b").Allow())
}
