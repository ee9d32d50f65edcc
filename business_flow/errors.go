// Package businessflow contains the core business logic and use cases for campaign, submission, and payout workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound        = errors.New("user not found")
	ErrUserBanned          = errors.New("user is banned")
	ErrAccountIDTaken      = errors.New("account ID already registered")
	ErrIncorrectCredentials = errors.New("incorrect credentials")

	// Campaign-related errors
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrCampaignNotActive    = errors.New("campaign is not active")
	ErrCampaignNameTaken    = errors.New("campaign name already exists")
	ErrCampaignNoAdapter    = errors.New("campaign targets a platform with no configured adapter")
	ErrNotCampaignMember    = errors.New("user is not a member of the campaign")
	ErrAlreadyMember        = errors.New("user is already a member of the campaign")

	// Submission-related errors
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrDuplicateSubmission  = errors.New("video already submitted to this campaign")
	ErrPlatformNotAllowed   = errors.New("platform not allowed by the campaign")
	ErrPlatformUnrecognized = errors.New("video URL does not belong to a supported platform")
	ErrInvalidTransition    = errors.New("submission status transition not allowed")

	// Payout-related errors
	ErrPayoutNotFound         = errors.New("payout not found")
	ErrNoEligibleSubmissions  = errors.New("no approved unpaid submissions")
	ErrPayoutAlreadyProcessed = errors.New("payout already processed")
	ErrConcurrencyConflict    = errors.New("concurrent modification detected")

	// Rate limit errors
	ErrRateLimited = errors.New("action rate limited")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsUserBanned(err error) bool {
	return errors.Is(err, ErrUserBanned)
}

func IsAccountIDTaken(err error) bool {
	return errors.Is(err, ErrAccountIDTaken)
}

func IsIncorrectCredentials(err error) bool {
	return errors.Is(err, ErrIncorrectCredentials)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignNotActive(err error) bool {
	return errors.Is(err, ErrCampaignNotActive)
}

func IsCampaignNameTaken(err error) bool {
	return errors.Is(err, ErrCampaignNameTaken)
}

func IsNotCampaignMember(err error) bool {
	return errors.Is(err, ErrNotCampaignMember)
}

func IsAlreadyMember(err error) bool {
	return errors.Is(err, ErrAlreadyMember)
}

func IsSubmissionNotFound(err error) bool {
	return errors.Is(err, ErrSubmissionNotFound)
}

func IsDuplicateSubmission(err error) bool {
	return errors.Is(err, ErrDuplicateSubmission)
}

func IsPlatformNotAllowed(err error) bool {
	return errors.Is(err, ErrPlatformNotAllowed)
}

func IsPlatformUnrecognized(err error) bool {
	return errors.Is(err, ErrPlatformUnrecognized)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func IsCampaignNoAdapter(err error) bool {
	return errors.Is(err, ErrCampaignNoAdapter)
}

func IsPayoutNotFound(err error) bool {
	return errors.Is(err, ErrPayoutNotFound)
}

func IsNoEligibleSubmissions(err error) bool {
	return errors.Is(err, ErrNoEligibleSubmissions)
}

func IsPayoutAlreadyProcessed(err error) bool {
	return errors.Is(err, ErrPayoutAlreadyProcessed)
}

func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
