package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "resend:a@b.co", time.Minute))

	err := l.Allow(ctx, "resend:a@b.co", time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 60, rl.RetryAfterSeconds())

	// other keys are independent
	require.NoError(t, l.Allow(ctx, "resend:c@d.co", time.Minute))

	now = now.Add(59*time.Second + 500*time.Millisecond)
	err = l.Allow(ctx, "resend:a@b.co", time.Minute)
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 1, rl.RetryAfterSeconds())

	now = now.Add(time.Second)
	assert.NoError(t, l.Allow(ctx, "resend:a@b.co", time.Minute))
}
