package businessflow

import (
	"context"
	"time"

	"github.com/clipforge/clipforge/repository"
	"github.com/clipforge/clipforge/utils"
)

// Rate limit action names
const (
	ActionSubmitClip    = "submit_clip"
	ActionRequestPayout = "request_payout"
	ActionJoinCampaign  = "join_campaign"
)

// RateLimiter is a persistent minimum-interval gate keyed by (subject,
// action). It survives restarts and is shared by every replica that talks to
// the same database.
type RateLimiter interface {
	// TryAct returns nil when the action is allowed and records the attempt.
	// Returns ErrRateLimited when the subject acted on this action less than
	// interval ago. A denied attempt does not extend the window.
	TryAct(ctx context.Context, subject, action string, interval time.Duration) error

	// RetryAfter reports how long the subject must wait before the action is
	// allowed again. Zero means allowed now.
	RetryAfter(ctx context.Context, subject, action string, interval time.Duration) (time.Duration, error)
}

// RateLimiterImpl implements RateLimiter over the rate limit repository
type RateLimiterImpl struct {
	repo  repository.RateLimitRepository
	clock utils.Clock
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(repo repository.RateLimitRepository, clock utils.Clock) RateLimiter {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &RateLimiterImpl{repo: repo, clock: clock}
}

// TryAct attempts the action. A non-positive interval always allows.
func (l *RateLimiterImpl) TryAct(ctx context.Context, subject, action string, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	now := l.clock.Now()
	allowed, err := l.repo.TryAcquire(ctx, subject, action, now, now.Add(-interval))
	if err != nil {
		return err
	}
	if !allowed {
		return ErrRateLimited
	}
	return nil
}

// RetryAfter computes the remaining wait for the subject
func (l *RateLimiterImpl) RetryAfter(ctx context.Context, subject, action string, interval time.Duration) (time.Duration, error) {
	if interval <= 0 {
		return 0, nil
	}

	entry, err := l.repo.Get(ctx, subject, action)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, nil
	}

	remaining := interval - l.clock.Now().Sub(entry.LastActionAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
