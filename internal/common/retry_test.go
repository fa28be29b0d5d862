package common

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Veraticus/finassist/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		failures  error
		wantIs    error
		name      string
		failTimes int
		attempts  int
		wantCalls int
	}{
		{
			name:      "succeeds first time",
			attempts:  3,
			wantCalls: 1,
		},
		{
			name:      "recovers from transient failures",
			failures:  Transient(errBoom),
			failTimes: 2,
			attempts:  3,
			wantCalls: 3,
		},
		{
			name:      "gives up after max attempts",
			failures:  Transient(errBoom),
			failTimes: 10,
			attempts:  3,
			wantCalls: 3,
			wantIs:    ErrMaxRetries,
		},
		{
			name:      "permanent errors stop immediately",
			failures:  Permanent(errBoom),
			failTimes: 10,
			attempts:  5,
			wantCalls: 1,
			wantIs:    errBoom,
		},
		{
			name:      "plain errors are retried",
			failures:  errBoom,
			failTimes: 1,
			attempts:  2,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= tt.failTimes {
					return tt.failures
				}
				return nil
			}, fastRetry(tt.attempts))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantIs)
		})
	}
}

func TestWithRetryKeepsCause(t *testing.T) {
	err := WithRetry(context.Background(), func() error {
		return Transient(errBoom)
	}, fastRetry(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.ErrorIs(t, err, errBoom)
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour}

	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		cancel()
		return errBoom
	}, opts)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetryUsesRequestedDelay(t *testing.T) {
	opts := service.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 40 * time.Millisecond}

	start := time.Now()
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return TransientAfter(errBoom, 20*time.Millisecond)
		}
		return nil
	}, opts)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestBackoffDelay(t *testing.T) {
	b := newBackoff(service.RetryOptions{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2})

	assert.Equal(t, 10*time.Millisecond, b.delay(0))
	assert.Equal(t, 20*time.Millisecond, b.delay(0))
	assert.Equal(t, 30*time.Millisecond, b.delay(30*time.Millisecond), "requested delay above computed")
	assert.Equal(t, 50*time.Millisecond, b.delay(0), "capped at max")
	assert.Equal(t, 50*time.Millisecond, b.delay(time.Hour), "requested delay is capped too")
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{name: "absent", want: 0},
		{name: "seconds", header: "3", want: 3 * time.Second},
		{name: "http date", header: now.Add(90 * time.Second).Format(http.TimeFormat), want: 90 * time.Second},
		{name: "date in the past", header: now.Add(-time.Minute).Format(http.TimeFormat), want: 0},
		{name: "garbage", header: "soon", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Retry-After", tt.header)
			}
			assert.Equal(t, tt.want, RetryAfter(h, now))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(TransientAfter(errBoom, time.Second)))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(Transient(errBoom)))
	assert.False(t, IsRetryable(Permanent(errBoom)))
	assert.False(t, IsRetryable(errBoom))
}
