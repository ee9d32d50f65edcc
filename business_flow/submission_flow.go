// Package businessflow contains the core business logic and use cases for submission workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/clipforge/clipforge/app/dto"
	"github.com/clipforge/clipforge/app/services"
	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/repository"
	"github.com/clipforge/clipforge/utils"
	"gorm.io/gorm"
)

// SubmissionFlow handles the submission lifecycle
type SubmissionFlow interface {
	CreateSubmission(ctx context.Context, req *dto.CreateSubmissionRequest, metadata *ClientMetadata) (*dto.CreateSubmissionResponse, error)
	ApproveSubmission(ctx context.Context, req *dto.ReviewSubmissionRequest, metadata *ClientMetadata) (*dto.ReviewSubmissionResponse, error)
	RejectSubmission(ctx context.Context, req *dto.ReviewSubmissionRequest, metadata *ClientMetadata) (*dto.ReviewSubmissionResponse, error)
	FlagSubmission(ctx context.Context, req *dto.FlagSubmissionRequest, metadata *ClientMetadata) (*dto.FlagSubmissionResponse, error)
	ListSubmissions(ctx context.Context, req *dto.ListSubmissionsRequest) (*dto.ListSubmissionsResponse, error)
	GetSubmissionHistory(ctx context.Context, submissionUUID string) (*dto.SubmissionHistoryResponse, error)
}

// SubmissionFlowImpl implements the submission business flow
type SubmissionFlowImpl struct {
	submissionRepo repository.SubmissionRepository
	campaignRepo   repository.CampaignRepository
	memberRepo     repository.CampaignMemberRepository
	userRepo       repository.UserRepository
	sampleRepo     repository.ViewSampleRepository
	auditRepo      repository.AuditLogRepository
	adapters       *services.AdapterRegistry
	rateLimiter    RateLimiter
	notifier       services.NotificationService
	rateLimitCfg   config.RateLimitConfig
	clock          utils.Clock
	db             *gorm.DB
}

// NewSubmissionFlow creates a new submission flow instance
func NewSubmissionFlow(
	submissionRepo repository.SubmissionRepository,
	campaignRepo repository.CampaignRepository,
	memberRepo repository.CampaignMemberRepository,
	userRepo repository.UserRepository,
	sampleRepo repository.ViewSampleRepository,
	auditRepo repository.AuditLogRepository,
	adapters *services.AdapterRegistry,
	rateLimiter RateLimiter,
	notifier services.NotificationService,
	rateLimitCfg config.RateLimitConfig,
	clock utils.Clock,
	db *gorm.DB,
) SubmissionFlow {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &SubmissionFlowImpl{
		submissionRepo: submissionRepo,
		campaignRepo:   campaignRepo,
		memberRepo:     memberRepo,
		userRepo:       userRepo,
		sampleRepo:     sampleRepo,
		auditRepo:      auditRepo,
		adapters:       adapters,
		rateLimiter:    rateLimiter,
		notifier:       notifier,
		rateLimitCfg:   rateLimitCfg,
		clock:          clock,
		db:             db,
	}
}

// CreateSubmission validates and records a creator's video link. The view
// count starts at zero; the reconciler fills it in on its next sweep.
func (s *SubmissionFlowImpl) CreateSubmission(ctx context.Context, req *dto.CreateSubmissionRequest, metadata *ClientMetadata) (*dto.CreateSubmissionResponse, error) {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user.IsBanned() {
		return nil, NewBusinessError("USER_BANNED", "User is banned", ErrUserBanned)
	}

	normalized, err := models.NormalizeVideoURL(req.VideoURL)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_URL_INVALID", "Video URL is invalid", err)
	}
	platform, err := models.PlatformFromURL(normalized)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_PLATFORM_UNRECOGNIZED", "Video URL does not belong to a supported platform", ErrPlatformUnrecognized)
	}

	campaign, err := getCampaign(ctx, s.campaignRepo, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if !campaign.IsActive() {
		return nil, NewBusinessError("CAMPAIGN_NOT_ACTIVE", "Campaign is not active", ErrCampaignNotActive)
	}
	if !campaign.AllowsPlatform(platform) {
		return nil, NewBusinessErrorf("SUBMISSION_PLATFORM_NOT_ALLOWED", "campaign does not accept %s submissions", ErrPlatformNotAllowed, platform)
	}

	member, err := s.memberRepo.ByCampaignAndUser(ctx, campaign.ID, user.ID)
	if err != nil {
		return nil, NewBusinessError("MEMBERSHIP_LOOKUP_FAILED", "Failed to check membership", err)
	}
	if member == nil {
		return nil, NewBusinessError("NOT_MEMBER", "User is not a member of the campaign", ErrNotCampaignMember)
	}

	// The gate records the attempt only when allowed, so a denied submission
	// does not push the next window out.
	if err := s.rateLimiter.TryAct(ctx, user.AccountID, ActionSubmitClip, s.rateLimitCfg.SubmissionInterval); err != nil {
		if IsRateLimited(err) {
			return nil, NewBusinessError("SUBMISSION_RATE_LIMITED", "Too many submissions, try again later", err)
		}
		return nil, NewBusinessError("RATE_LIMIT_CHECK_FAILED", "Failed to check rate limit", err)
	}

	existing, err := s.submissionRepo.ByCampaignAndURL(ctx, campaign.ID, normalized)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_LOOKUP_FAILED", "Failed to check for duplicate submission", err)
	}
	if existing != nil {
		return nil, NewBusinessError("SUBMISSION_DUPLICATE", "Video already submitted to this campaign", ErrDuplicateSubmission)
	}

	submission := &models.Submission{
		CampaignID:  campaign.ID,
		UserID:      user.ID,
		VideoURL:    normalized,
		Platform:    platform,
		Status:      models.SubmissionStatusPending,
		SubmittedAt: s.clock.Now(),
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.submissionRepo.Save(txCtx, submission)
	})
	if err != nil {
		errMsg := err.Error()
		_ = writeAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionSubmissionFailed, "Submission creation failed", false, &errMsg, metadata)

		// The unique index catches the race two duplicate submits can win
		if repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("SUBMISSION_DUPLICATE", "Video already submitted to this campaign", ErrDuplicateSubmission)
		}
		return nil, NewBusinessError("SUBMISSION_CREATION_FAILED", "Submission creation failed", err)
	}

	msg := fmt.Sprintf("Submission created: %s (%s)", submission.UUID.String(), platform)
	_ = writeAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionSubmissionCreated, msg, true, nil, metadata)

	return &dto.CreateSubmissionResponse{
		Message:     "Submission received",
		UUID:        submission.UUID.String(),
		Platform:    string(platform),
		Status:      string(submission.Status),
		SubmittedAt: submission.SubmittedAt.Format(time.RFC3339),
	}, nil
}

// ApproveSubmission moves a pending or flagged submission to approved. The
// moderator may supply an authoritative view count; otherwise a fresh count
// is fetched best effort so the approval snapshot is current, and a failed
// fetch falls back to the last known count without blocking the approval.
func (s *SubmissionFlowImpl) ApproveSubmission(ctx context.Context, req *dto.ReviewSubmissionRequest, metadata *ClientMetadata) (*dto.ReviewSubmissionResponse, error) {
	submission, err := s.getSubmission(ctx, req.SubmissionUUID)
	if err != nil {
		return nil, err
	}
	if !submission.CanTransitionTo(models.SubmissionStatusApproved) {
		return nil, NewBusinessErrorf("SUBMISSION_INVALID_TRANSITION", "cannot approve a %s submission", ErrInvalidTransition, submission.Status)
	}

	expected := submission.Status
	now := s.clock.Now()

	// The view refresh happens before the transaction opens so the external
	// call never runs while rows are held.
	var fresh *models.ViewSample
	if req.Views != nil {
		submission.Views = *req.Views
		fresh = &models.ViewSample{
			SubmissionID: submission.ID,
			Views:        *req.Views,
			Platform:     submission.Platform,
			ObservedAt:   now,
		}
	} else if adapter := s.adapters.Get(submission.Platform); adapter != nil {
		if views, ferr := adapter.FetchViews(ctx, submission.VideoURL); ferr == nil && views >= 0 {
			submission.Views = views
			fresh = &models.ViewSample{
				SubmissionID: submission.ID,
				Views:        views,
				Platform:     submission.Platform,
				ObservedAt:   now,
			}
		}
	}

	submission.Status = models.SubmissionStatusApproved
	submission.FlagKind = nil
	submission.FlagDetail = nil
	submission.FlagSource = nil
	submission.LastReviewedAt = &now

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if fresh != nil {
			if err := s.sampleRepo.Save(txCtx, fresh); err != nil {
				return fmt.Errorf("save view sample: %w", err)
			}
		}
		affected, err := s.submissionRepo.UpdateStatusFrom(txCtx, submission, expected)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrConcurrencyConflict
		}
		return nil
	})
	if err != nil {
		if IsConcurrencyConflict(err) {
			return nil, NewBusinessError("SUBMISSION_CONCURRENT_MODIFICATION", "Submission was modified concurrently", err)
		}
		return nil, NewBusinessError("SUBMISSION_UPDATE_FAILED", "Failed to approve submission", err)
	}

	msg := fmt.Sprintf("Submission approved: %s", submission.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &submission.UserID, models.AuditActionSubmissionApproved, msg, true, nil, metadata)
	s.notifyUser(ctx, submission.UserID, services.Notification{
		Event: services.EventSubmissionApproved,
		Title: "Submission approved",
		Body:  fmt.Sprintf("Your clip was approved with %d views on record.", submission.Views),
	})

	return &dto.ReviewSubmissionResponse{
		Message: "Submission approved",
		Status:  string(submission.Status),
		Views:   submission.Views,
	}, nil
}

// RejectSubmission moves a pending or flagged submission to rejected.
// Rejected is terminal: the reconciler stops polling it and it can never
// fund a payout.
func (s *SubmissionFlowImpl) RejectSubmission(ctx context.Context, req *dto.ReviewSubmissionRequest, metadata *ClientMetadata) (*dto.ReviewSubmissionResponse, error) {
	submission, err := s.getSubmission(ctx, req.SubmissionUUID)
	if err != nil {
		return nil, err
	}
	if !submission.CanTransitionTo(models.SubmissionStatusRejected) {
		return nil, NewBusinessErrorf("SUBMISSION_INVALID_TRANSITION", "cannot reject a %s submission", ErrInvalidTransition, submission.Status)
	}

	expected := submission.Status
	now := s.clock.Now()
	submission.Status = models.SubmissionStatusRejected
	submission.FlagKind = nil
	submission.FlagDetail = nil
	submission.FlagSource = nil
	submission.LastReviewedAt = &now

	affected, err := s.submissionRepo.UpdateStatusFrom(ctx, submission, expected)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_UPDATE_FAILED", "Failed to reject submission", err)
	}
	if affected == 0 {
		return nil, NewBusinessError("SUBMISSION_CONCURRENT_MODIFICATION", "Submission was modified concurrently", ErrConcurrencyConflict)
	}

	reason := "no reason given"
	if req.Reason != nil && *req.Reason != "" {
		reason = *req.Reason
	}
	msg := fmt.Sprintf("Submission rejected: %s (%s)", submission.UUID.String(), reason)
	_ = writeAuditLog(ctx, s.auditRepo, &submission.UserID, models.AuditActionSubmissionRejected, msg, true, nil, metadata)
	s.notifyUser(ctx, submission.UserID, services.Notification{
		Event: services.EventSubmissionRejected,
		Title: "Submission rejected",
		Body:  fmt.Sprintf("Your clip was rejected: %s", reason),
	})

	return &dto.ReviewSubmissionResponse{
		Message: "Submission rejected",
		Status:  string(submission.Status),
		Views:   submission.Views,
	}, nil
}

// FlagSubmission puts a pending submission under moderator review. Repeating
// the same flag on an already-flagged submission is a no-op; flagging it for a
// different reason is a conflict the moderator resolves by clearing it first.
func (s *SubmissionFlowImpl) FlagSubmission(ctx context.Context, req *dto.FlagSubmissionRequest, metadata *ClientMetadata) (*dto.FlagSubmissionResponse, error) {
	submission, err := s.getSubmission(ctx, req.SubmissionUUID)
	if err != nil {
		return nil, err
	}
	if submission.Status == models.SubmissionStatusFlagged {
		sameKind := submission.FlagKind != nil && *submission.FlagKind == models.AnomalyManual
		sameDetail := (submission.FlagDetail == nil && req.Detail == nil) ||
			(submission.FlagDetail != nil && req.Detail != nil && *submission.FlagDetail == *req.Detail)
		if sameKind && sameDetail {
			return &dto.FlagSubmissionResponse{
				Message: "Submission flagged",
				Status:  string(submission.Status),
			}, nil
		}
		return nil, NewBusinessError("SUBMISSION_INVALID_TRANSITION", "Submission is already flagged for a different reason", ErrInvalidTransition)
	}
	if !submission.CanTransitionTo(models.SubmissionStatusFlagged) {
		return nil, NewBusinessErrorf("SUBMISSION_INVALID_TRANSITION", "cannot flag a %s submission", ErrInvalidTransition, submission.Status)
	}

	expected := submission.Status
	kind := models.AnomalyManual
	source := models.FlagSourceModerator
	submission.Status = models.SubmissionStatusFlagged
	submission.FlagKind = &kind
	submission.FlagDetail = req.Detail
	submission.FlagSource = &source

	affected, err := s.submissionRepo.UpdateStatusFrom(ctx, submission, expected)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_UPDATE_FAILED", "Failed to flag submission", err)
	}
	if affected == 0 {
		return nil, NewBusinessError("SUBMISSION_CONCURRENT_MODIFICATION", "Submission was modified concurrently", ErrConcurrencyConflict)
	}

	msg := fmt.Sprintf("Submission flagged for review: %s", submission.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &submission.UserID, models.AuditActionSubmissionFlagged, msg, true, nil, metadata)
	s.notifyUser(ctx, submission.UserID, services.Notification{
		Event: services.EventSubmissionFlagged,
		Title: "Submission under review",
		Body:  "Your clip was flagged for manual review.",
	})

	return &dto.FlagSubmissionResponse{
		Message: "Submission flagged",
		Status:  string(submission.Status),
	}, nil
}

// ListSubmissions lists submissions with optional campaign, user, and status filters
func (s *SubmissionFlowImpl) ListSubmissions(ctx context.Context, req *dto.ListSubmissionsRequest) (*dto.ListSubmissionsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}

	filter := models.SubmissionFilter{UserID: req.UserID}
	if req.CampaignUUID != nil {
		campaign, err := getCampaign(ctx, s.campaignRepo, *req.CampaignUUID)
		if err != nil {
			return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
		}
		filter.CampaignID = &campaign.ID
	}
	if req.Status != nil {
		status := models.SubmissionStatus(*req.Status)
		filter.Status = &status
	}

	submissions, err := s.submissionRepo.ByFilter(ctx, filter, "submitted_at DESC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_LIST_FAILED", "Failed to list submissions", err)
	}
	total, err := s.submissionRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_COUNT_FAILED", "Failed to count submissions", err)
	}

	resp := &dto.ListSubmissionsResponse{
		Submissions: make([]dto.SubmissionItem, 0, len(submissions)),
		Total:       total,
		Page:        page,
		Limit:       limit,
	}
	for _, sub := range submissions {
		item := dto.SubmissionItem{
			UUID:        sub.UUID.String(),
			CampaignID:  sub.CampaignID,
			VideoURL:    sub.VideoURL,
			Platform:    string(sub.Platform),
			Views:       sub.Views,
			Status:      string(sub.Status),
			FlagDetail:  sub.FlagDetail,
			SubmittedAt: sub.SubmittedAt,
			PaidAt:      sub.PaidAt,
		}
		if sub.FlagKind != nil {
			item.FlagKind = utils.ToPtr(string(*sub.FlagKind))
		}
		resp.Submissions = append(resp.Submissions, item)
	}
	return resp, nil
}

// GetSubmissionHistory returns a submission with its recorded view samples
func (s *SubmissionFlowImpl) GetSubmissionHistory(ctx context.Context, submissionUUID string) (*dto.SubmissionHistoryResponse, error) {
	submission, err := s.getSubmission(ctx, submissionUUID)
	if err != nil {
		return nil, err
	}

	samples, err := s.sampleRepo.ListBySubmission(ctx, submission.ID, 100)
	if err != nil {
		return nil, NewBusinessError("SAMPLE_LIST_FAILED", "Failed to list view samples", err)
	}

	resp := &dto.SubmissionHistoryResponse{
		UUID:    submission.UUID.String(),
		Views:   submission.Views,
		Status:  string(submission.Status),
		Samples: make([]dto.ViewSampleItem, 0, len(samples)),
	}
	for _, sample := range samples {
		resp.Samples = append(resp.Samples, dto.ViewSampleItem{
			Views:      sample.Views,
			ObservedAt: sample.ObservedAt,
		})
	}
	return resp, nil
}

func (s *SubmissionFlowImpl) getSubmission(ctx context.Context, submissionUUID string) (*models.Submission, error) {
	submission, err := s.submissionRepo.ByUUID(ctx, submissionUUID)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_LOOKUP_FAILED", "Failed to lookup submission", err)
	}
	if submission == nil {
		return nil, NewBusinessError("SUBMISSION_NOT_FOUND", "Submission not found", ErrSubmissionNotFound)
	}
	return submission, nil
}

// notifyUser resolves the account reference and fires the notification,
// best effort
func (s *SubmissionFlowImpl) notifyUser(ctx context.Context, userID uint, n services.Notification) {
	if s.notifier == nil {
		return
	}
	if user, err := s.userRepo.ByID(ctx, userID); err == nil && user != nil {
		n.UserRef = user.AccountID
	}
	go func(n services.Notification) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.notifier.Notify(ctx, n)
	}(n)
}
