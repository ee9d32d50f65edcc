package models

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestSubmissionCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from SubmissionStatus
		to   SubmissionStatus
		want bool
	}{
		{name: "pending to approved", from: SubmissionStatusPending, to: SubmissionStatusApproved, want: true},
		{name: "pending to rejected", from: SubmissionStatusPending, to: SubmissionStatusRejected, want: true},
		{name: "pending to flagged", from: SubmissionStatusPending, to: SubmissionStatusFlagged, want: true},
		{name: "flagged to approved", from: SubmissionStatusFlagged, to: SubmissionStatusApproved, want: true},
		{name: "flagged to rejected", from: SubmissionStatusFlagged, to: SubmissionStatusRejected, want: true},
		{name: "flagged to pending", from: SubmissionStatusFlagged, to: SubmissionStatusPending, want: false},
		{name: "approved is terminal", from: SubmissionStatusApproved, to: SubmissionStatusFlagged, want: false},
		{name: "rejected is terminal", from: SubmissionStatusRejected, to: SubmissionStatusApproved, want: false},
		{name: "no self transition", from: SubmissionStatusPending, to: SubmissionStatusPending, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Submission{Status: tt.from}
			assert.Equal(t, tt.want, s.CanTransitionTo(tt.to))
		})
	}
}

func TestSubmissionPollable(t *testing.T) {
	assert.True(t, (&Submission{Status: SubmissionStatusPending}).Pollable())
	assert.True(t, (&Submission{Status: SubmissionStatusApproved}).Pollable())
	assert.True(t, (&Submission{Status: SubmissionStatusFlagged}).Pollable())
	assert.False(t, (&Submission{Status: SubmissionStatusRejected}).Pollable())
}

func TestSubmissionIsPaid(t *testing.T) {
	s := &Submission{}
	assert.False(t, s.IsPaid())

	now := time.Now().UTC()
	s.PaidAt = &now
	assert.True(t, s.IsPaid())
}

func TestSubmissionStatusTerminal(t *testing.T) {
	assert.True(t, SubmissionStatusApproved.Terminal())
	assert.True(t, SubmissionStatusRejected.Terminal())
	assert.False(t, SubmissionStatusPending.Terminal())
	assert.False(t, SubmissionStatusFlagged.Terminal())
}

func TestPayoutCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from PayoutStatus
		to   PayoutStatus
		want bool
	}{
		{name: "pending to approved", from: PayoutStatusPending, to: PayoutStatusApproved, want: true},
		{name: "pending to rejected", from: PayoutStatusPending, to: PayoutStatusRejected, want: true},
		{name: "approved is terminal", from: PayoutStatusApproved, to: PayoutStatusRejected, want: false},
		{name: "rejected is terminal", from: PayoutStatusRejected, to: PayoutStatusApproved, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payout{Status: tt.from}
			assert.Equal(t, tt.want, p.CanTransitionTo(tt.to))
		})
	}
}

func TestCampaignAllowsPlatform(t *testing.T) {
	c := &Campaign{Platforms: pq.StringArray{"youtube", "tiktok"}}
	assert.True(t, c.AllowsPlatform(PlatformYouTube))
	assert.True(t, c.AllowsPlatform(PlatformTikTok))
	assert.False(t, c.AllowsPlatform(PlatformInstagram))
}
