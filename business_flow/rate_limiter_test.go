package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/clipforge/clipforge/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock is a settable clock for deterministic tests
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// memoryRateLimitRepo reproduces the upsert semantics of the persistent store
type memoryRateLimitRepo struct {
	entries map[string]time.Time
}

func newMemoryRateLimitRepo() *memoryRateLimitRepo {
	return &memoryRateLimitRepo{entries: make(map[string]time.Time)}
}

func (r *memoryRateLimitRepo) TryAcquire(_ context.Context, subject, action string, now, cutoff time.Time) (bool, error) {
	key := subject + "/" + action
	last, ok := r.entries[key]
	if ok && last.After(cutoff) {
		return false, nil
	}
	r.entries[key] = now
	return true, nil
}

func (r *memoryRateLimitRepo) Get(_ context.Context, subject, action string) (*models.RateLimitEntry, error) {
	last, ok := r.entries[subject+"/"+action]
	if !ok {
		return nil, nil
	}
	return &models.RateLimitEntry{Subject: subject, Action: action, LastActionAt: last}, nil
}

func TestRateLimiterTryAct(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(newMemoryRateLimitRepo(), clock)

	interval := 5 * time.Minute

	// First attempt is allowed
	require.NoError(t, limiter.TryAct(ctx, "acct_1", ActionSubmitClip, interval))

	// Immediate retry is denied
	err := limiter.TryAct(ctx, "acct_1", ActionSubmitClip, interval)
	assert.True(t, IsRateLimited(err))

	// A denied attempt does not extend the window
	clock.Advance(4 * time.Minute)
	err = limiter.TryAct(ctx, "acct_1", ActionSubmitClip, interval)
	assert.True(t, IsRateLimited(err))

	clock.Advance(time.Minute)
	require.NoError(t, limiter.TryAct(ctx, "acct_1", ActionSubmitClip, interval))
}

func TestRateLimiterIndependentKeys(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(newMemoryRateLimitRepo(), clock)

	interval := time.Hour

	require.NoError(t, limiter.TryAct(ctx, "acct_1", ActionSubmitClip, interval))

	// Same subject, different action
	require.NoError(t, limiter.TryAct(ctx, "acct_1", ActionRequestPayout, interval))

	// Different subject, same action
	require.NoError(t, limiter.TryAct(ctx, "acct_2", ActionSubmitClip, interval))

	// Original key is still blocked
	assert.True(t, IsRateLimited(limiter.TryAct(ctx, "acct_1", ActionSubmitClip, interval)))
}

func TestRateLimiterNonPositiveInterval(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(newMemoryRateLimitRepo(), clock)

	for range 3 {
		require.NoError(t, limiter.TryAct(ctx, "acct_1", ActionSubmitClip, 0))
	}
}

func TestRateLimiterRetryAfter(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(newMemoryRateLimitRepo(), clock)

	interval := 10 * time.Minute

	// Nothing recorded yet
	wait, err := limiter.RetryAfter(ctx, "acct_1", ActionRequestPayout, interval)
	require.NoError(t, err)
	assert.Zero(t, wait)

	require.NoError(t, limiter.TryAct(ctx, "acct_1", ActionRequestPayout, interval))

	clock.Advance(3 * time.Minute)
	wait, err = limiter.RetryAfter(ctx, "acct_1", ActionRequestPayout, interval)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Minute, wait)

	clock.Advance(10 * time.Minute)
	wait, err = limiter.RetryAfter(ctx, "acct_1", ActionRequestPayout, interval)
	require.NoError(t, err)
	assert.Zero(t, wait)
}
