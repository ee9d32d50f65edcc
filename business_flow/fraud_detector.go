package businessflow

import (
	"fmt"
	"time"

	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
)

// Verdict is the outcome of assessing one observed view count
type Verdict int

const (
	// VerdictAccept records the sample and updates the submission normally.
	VerdictAccept Verdict = iota

	// VerdictAcceptWithFlag records the sample and moves the submission to
	// flagged for moderator review.
	VerdictAcceptWithFlag

	// VerdictRejectSample discards the observation: the stored view count
	// keeps its previous value and the submission is left untouched. Reserved
	// for inputs that can only come from a broken adapter, not from fraud.
	VerdictRejectSample
)

// Assessment is the detector's decision plus the flag it implies
type Assessment struct {
	Verdict Verdict
	Kind    models.AnomalyKind
	Detail  string
}

// FraudDetector assesses a freshly observed view count against the
// submission's history. It is pure policy: no storage access, no clock.
type FraudDetector interface {
	Assess(submission *models.Submission, previous *models.ViewSample, observed int64, observedAt time.Time) Assessment
}

// FraudDetectorImpl implements FraudDetector with configured thresholds
type FraudDetectorImpl struct {
	cfg config.FraudConfig
}

// NewFraudDetector creates a new fraud detector
func NewFraudDetector(cfg config.FraudConfig) FraudDetector {
	return &FraudDetectorImpl{cfg: cfg}
}

// Assess applies the anomaly policy in order: invalid input first, then
// decreases, then growth. A submission already flagged keeps collecting
// samples but is never re-flagged; moderator review owns it until cleared.
func (d *FraudDetectorImpl) Assess(submission *models.Submission, previous *models.ViewSample, observed int64, observedAt time.Time) Assessment {
	if observed < 0 {
		// A platform cannot report negative views; the adapter is broken.
		// Drop the sample without flagging.
		return Assessment{Verdict: VerdictRejectSample}
	}

	if previous == nil {
		// First observation, nothing to compare against
		return Assessment{Verdict: VerdictAccept}
	}

	// Platform-side recounts move counts down by small amounts. Anything
	// beyond the tolerance is treated as evidence of deleted or botted views,
	// but the observed count is still recorded so the record reflects what
	// the platform reports while a moderator adjudicates.
	if decrease := previous.Views - observed; decrease > d.cfg.DecreaseTolerance {
		if submission.Status == models.SubmissionStatusFlagged {
			return Assessment{Verdict: VerdictAccept}
		}
		return Assessment{
			Verdict: VerdictAcceptWithFlag,
			Kind:    models.AnomalyViewDecrease,
			Detail: fmt.Sprintf("view count decreased from %d to %d (tolerance %d)",
				previous.Views, observed, d.cfg.DecreaseTolerance),
		}
	}

	// Growth check: compare the rate over the latest interval against the
	// submission's historical views-per-hour. Young submissions below the
	// grace threshold are exempt since viral takeoffs look identical to bots.
	if observed > d.cfg.GrowthGraceViews {
		elapsed := observedAt.Sub(previous.ObservedAt)
		lifetime := previous.ObservedAt.Sub(submission.SubmittedAt)
		if elapsed > 0 && lifetime > 0 && previous.Views > 0 {
			recentRate := float64(observed-previous.Views) / elapsed.Hours()
			historicalRate := float64(previous.Views) / lifetime.Hours()
			if historicalRate > 0 && recentRate > historicalRate*d.cfg.GrowthCeilingMultiplier {
				if submission.Status == models.SubmissionStatusFlagged {
					// Already under review, keep collecting samples
					return Assessment{Verdict: VerdictAccept}
				}
				return Assessment{
					Verdict: VerdictAcceptWithFlag,
					Kind:    models.AnomalyAbnormalGrowth,
					Detail: fmt.Sprintf("growth rate %.0f views/h exceeds %.1fx historical rate %.0f views/h",
						recentRate, d.cfg.GrowthCeilingMultiplier, historicalRate),
				}
			}
		}
	}

	return Assessment{Verdict: VerdictAccept}
}
