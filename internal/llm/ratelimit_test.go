package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rateFakeClock struct{ t time.Time }

func (c *rateFakeClock) now() time.Time          { return c.t }
func (c *rateFakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func limiterAt(requestsPerMinute int) (*rateLimiter, *rateFakeClock) {
	clock := &rateFakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(requestsPerMinute)
	rl.now = clock.now
	rl.last = clock.t
	return rl, clock
}

func TestRateLimiter_Reserve(t *testing.T) {
	rl, clock := limiterAt(60)

	for i := 0; i < 60; i++ {
		_, ok := rl.reserve()
		require.True(t, ok)
	}

	delay, ok := rl.reserve()
	assert.False(t, ok, "burst exhausted")
	assert.Equal(t, time.Second, delay)

	clock.advance(400 * time.Millisecond)
	delay, ok = rl.reserve()
	assert.False(t, ok)
	assert.Equal(t, 600*time.Millisecond, delay)

	clock.advance(600 * time.Millisecond)
	_, ok = rl.reserve()
	assert.True(t, ok, "one token credited after an interval")
}

func TestRateLimiter_CreditIsCapped(t *testing.T) {
	rl, clock := limiterAt(2)
	clock.advance(time.Hour)

	taken := 0
	for {
		if _, ok := rl.reserve(); !ok {
			break
		}
		taken++
	}
	assert.Equal(t, 2, taken)
}

func TestRateLimiter_Wait(t *testing.T) {
	t.Run("returns immediately with tokens left", func(t *testing.T) {
		rl := newRateLimiter(10)
		assert.NoError(t, rl.wait(context.Background()))
	})

	t.Run("waits for the next token", func(t *testing.T) {
		rl := newRateLimiter(1200) // one token every 50ms
		rl.tokens = 0

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, rl.wait(ctx))
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := rl.wait(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
