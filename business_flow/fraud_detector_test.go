package businessflow

import (
	"testing"
	"time"

	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
	"github.com/stretchr/testify/assert"
)

func testFraudConfig() config.FraudConfig {
	return config.FraudConfig{
		DecreaseTolerance:       50,
		GrowthCeilingMultiplier: 20.0,
		GrowthGraceViews:        10000,
	}
}

func TestFraudDetectorFirstObservation(t *testing.T) {
	detector := NewFraudDetector(testFraudConfig())

	sub := &models.Submission{Status: models.SubmissionStatusPending, SubmittedAt: time.Now().UTC()}
	a := detector.Assess(sub, nil, 1_000_000, time.Now().UTC())

	assert.Equal(t, VerdictAccept, a.Verdict)
	assert.Empty(t, a.Kind)
}

func TestFraudDetectorViewDecrease(t *testing.T) {
	detector := NewFraudDetector(testFraudConfig())
	submitted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	observedAt := submitted.Add(48 * time.Hour)

	tests := []struct {
		name        string
		previous    int64
		observed    int64
		status      models.SubmissionStatus
		wantVerdict Verdict
		wantKind    models.AnomalyKind
	}{
		{
			name:        "within tolerance",
			previous:    1000,
			observed:    960,
			status:      models.SubmissionStatusApproved,
			wantVerdict: VerdictAccept,
		},
		{
			name:        "exactly at tolerance",
			previous:    1000,
			observed:    950,
			status:      models.SubmissionStatusApproved,
			wantVerdict: VerdictAccept,
		},
		{
			name:        "beyond tolerance",
			previous:    1000,
			observed:    949,
			status:      models.SubmissionStatusApproved,
			wantVerdict: VerdictAcceptWithFlag,
			wantKind:    models.AnomalyViewDecrease,
		},
		{
			name:        "ninety percent drop flags but still records",
			previous:    1000,
			observed:    100,
			status:      models.SubmissionStatusApproved,
			wantVerdict: VerdictAcceptWithFlag,
			wantKind:    models.AnomalyViewDecrease,
		},
		{
			name:        "beyond tolerance on flagged submission keeps existing flag",
			previous:    1000,
			observed:    100,
			status:      models.SubmissionStatusFlagged,
			wantVerdict: VerdictAccept,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &models.Submission{Status: tt.status, SubmittedAt: submitted}
			prev := &models.ViewSample{Views: tt.previous, ObservedAt: observedAt.Add(-time.Hour)}

			a := detector.Assess(sub, prev, tt.observed, observedAt)

			assert.Equal(t, tt.wantVerdict, a.Verdict)
			assert.Equal(t, tt.wantKind, a.Kind)
		})
	}
}

func TestFraudDetectorNegativeCount(t *testing.T) {
	detector := NewFraudDetector(testFraudConfig())
	submitted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	observedAt := submitted.Add(24 * time.Hour)

	t.Run("rejected without history", func(t *testing.T) {
		sub := &models.Submission{Status: models.SubmissionStatusPending, SubmittedAt: submitted}

		a := detector.Assess(sub, nil, -5, observedAt)

		assert.Equal(t, VerdictRejectSample, a.Verdict)
		assert.Empty(t, a.Kind)
	})

	t.Run("rejected with history and no flag", func(t *testing.T) {
		sub := &models.Submission{Status: models.SubmissionStatusApproved, SubmittedAt: submitted}
		prev := &models.ViewSample{Views: 1000, ObservedAt: observedAt.Add(-time.Hour)}

		a := detector.Assess(sub, prev, -5, observedAt)

		assert.Equal(t, VerdictRejectSample, a.Verdict)
		assert.Empty(t, a.Kind)
	})
}

func TestFraudDetectorAbnormalGrowth(t *testing.T) {
	detector := NewFraudDetector(testFraudConfig())
	submitted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 100 views/hour over 100 hours of history, then a massive jump in one hour
	prev := &models.ViewSample{
		Views:      10_000,
		ObservedAt: submitted.Add(100 * time.Hour),
	}
	observedAt := prev.ObservedAt.Add(time.Hour)

	t.Run("jump beyond ceiling flags", func(t *testing.T) {
		sub := &models.Submission{Status: models.SubmissionStatusApproved, SubmittedAt: submitted}

		// recent rate 50000/h vs historical 100/h, far over the 20x ceiling
		a := detector.Assess(sub, prev, 60_000, observedAt)

		assert.Equal(t, VerdictAcceptWithFlag, a.Verdict)
		assert.Equal(t, models.AnomalyAbnormalGrowth, a.Kind)
		assert.NotEmpty(t, a.Detail)
	})

	t.Run("steady growth accepted", func(t *testing.T) {
		sub := &models.Submission{Status: models.SubmissionStatusApproved, SubmittedAt: submitted}

		a := detector.Assess(sub, prev, 10_150, observedAt)

		assert.Equal(t, VerdictAccept, a.Verdict)
		assert.Empty(t, a.Kind)
	})

	t.Run("below grace threshold exempt", func(t *testing.T) {
		sub := &models.Submission{Status: models.SubmissionStatusPending, SubmittedAt: submitted}
		small := &models.ViewSample{Views: 100, ObservedAt: prev.ObservedAt}

		// Huge relative jump but the absolute count stays under the grace
		a := detector.Assess(sub, small, 9_000, observedAt)

		assert.Equal(t, VerdictAccept, a.Verdict)
	})

	t.Run("already flagged keeps collecting without reflag", func(t *testing.T) {
		sub := &models.Submission{Status: models.SubmissionStatusFlagged, SubmittedAt: submitted}

		a := detector.Assess(sub, prev, 60_000, observedAt)

		assert.Equal(t, VerdictAccept, a.Verdict)
		assert.Empty(t, a.Kind)
	})
}
