// Package businessflow contains the core business logic and use cases for payout workflows
package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/clipforge/clipforge/app/dto"
	"github.com/clipforge/clipforge/app/services"
	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/repository"
	"github.com/clipforge/clipforge/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// PayoutFlow handles the payout lifecycle
type PayoutFlow interface {
	RequestPayout(ctx context.Context, req *dto.RequestPayoutRequest, metadata *ClientMetadata) (*dto.RequestPayoutResponse, error)
	ApprovePayout(ctx context.Context, req *dto.ProcessPayoutRequest, metadata *ClientMetadata) (*dto.ProcessPayoutResponse, error)
	RejectPayout(ctx context.Context, req *dto.ProcessPayoutRequest, metadata *ClientMetadata) (*dto.ProcessPayoutResponse, error)
	ListPayouts(ctx context.Context, req *dto.ListPayoutsRequest) (*dto.ListPayoutsResponse, error)
	ExportPayoutsExcel(ctx context.Context, status *string) (string, []byte, error)
}

// PayoutFlowImpl implements the payout business flow
type PayoutFlowImpl struct {
	payoutRepo     repository.PayoutRepository
	submissionRepo repository.SubmissionRepository
	campaignRepo   repository.CampaignRepository
	userRepo       repository.UserRepository
	auditRepo      repository.AuditLogRepository
	rateLimiter    RateLimiter
	notifier       services.NotificationService
	rateLimitCfg   config.RateLimitConfig
	clock          utils.Clock
	db             *gorm.DB
}

// NewPayoutFlow creates a new payout flow instance
func NewPayoutFlow(
	payoutRepo repository.PayoutRepository,
	submissionRepo repository.SubmissionRepository,
	campaignRepo repository.CampaignRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	rateLimiter RateLimiter,
	notifier services.NotificationService,
	rateLimitCfg config.RateLimitConfig,
	clock utils.Clock,
	db *gorm.DB,
) PayoutFlow {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &PayoutFlowImpl{
		payoutRepo:     payoutRepo,
		submissionRepo: submissionRepo,
		campaignRepo:   campaignRepo,
		userRepo:       userRepo,
		auditRepo:      auditRepo,
		rateLimiter:    rateLimiter,
		notifier:       notifier,
		rateLimitCfg:   rateLimitCfg,
		clock:          clock,
		db:             db,
	}
}

// PayoutAmountCents computes the amount owed for a view total at the
// campaign's rate per thousand views, rounded down to the cent.
func PayoutAmountCents(totalViews, ratePer1KCents int64) int64 {
	if totalViews <= 0 || ratePer1KCents <= 0 {
		return 0
	}
	return totalViews * ratePer1KCents / 1000
}

// RequestPayout converts a user's approved, unpaid views in one campaign
// into a pending payout. The eligible rows are locked, summed, and stamped
// inside one transaction so the same view can never be paid twice, even
// under concurrent requests.
func (s *PayoutFlowImpl) RequestPayout(ctx context.Context, req *dto.RequestPayoutRequest, metadata *ClientMetadata) (*dto.RequestPayoutResponse, error) {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user.IsBanned() {
		return nil, NewBusinessError("USER_BANNED", "User is banned", ErrUserBanned)
	}

	campaign, err := getCampaign(ctx, s.campaignRepo, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}

	if err := s.rateLimiter.TryAct(ctx, user.AccountID, ActionRequestPayout, s.rateLimitCfg.PayoutInterval); err != nil {
		if IsRateLimited(err) {
			return nil, NewBusinessError("PAYOUT_RATE_LIMITED", "Payout already requested recently", err)
		}
		return nil, NewBusinessError("RATE_LIMIT_CHECK_FAILED", "Failed to check rate limit", err)
	}

	method := req.PayoutMethod
	address := req.PayoutAddress
	if method == nil {
		method = user.PayoutMethod
	}
	if address == nil {
		address = user.PayoutAddress
	}

	var payout *models.Payout
	var submissionCount int

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		submissions, err := s.submissionRepo.ListApprovedUnpaidForUpdate(txCtx, campaign.ID, user.ID)
		if err != nil {
			return err
		}
		if len(submissions) == 0 {
			return ErrNoEligibleSubmissions
		}

		var totalViews int64
		ids := make([]uint, 0, len(submissions))
		for _, sub := range submissions {
			totalViews += sub.Views
			ids = append(ids, sub.ID)
		}

		payout = &models.Payout{
			UserID:        user.ID,
			CampaignID:    campaign.ID,
			AmountCents:   PayoutAmountCents(totalViews, campaign.RatePer1KCents),
			TotalViews:    totalViews,
			Status:        models.PayoutStatusPending,
			PayoutMethod:  method,
			PayoutAddress: address,
			RequestedAt:   s.clock.Now(),
		}
		if err := s.payoutRepo.Save(txCtx, payout); err != nil {
			return err
		}

		// The rows are locked, so a short count means something slipped a
		// paid marker in outside the lock. Abort rather than double-pay.
		marked, err := s.submissionRepo.MarkPaid(txCtx, ids, payout.ID, payout.RequestedAt)
		if err != nil {
			return err
		}
		if marked != int64(len(ids)) {
			return fmt.Errorf("%w: expected to mark %d submissions, marked %d", ErrConcurrencyConflict, len(ids), marked)
		}

		submissionCount = len(ids)
		return nil
	})
	if err != nil {
		errMsg := err.Error()
		_ = writeAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionPayoutRequestFailed, "Payout request failed", false, &errMsg, metadata)

		if IsNoEligibleSubmissions(err) {
			return nil, NewBusinessError("PAYOUT_NO_ELIGIBLE_SUBMISSIONS", "No approved unpaid submissions", err)
		}
		if IsConcurrencyConflict(err) {
			return nil, NewBusinessError("PAYOUT_CONFLICT", "Concurrent payout detected, try again", err)
		}
		return nil, NewBusinessError("PAYOUT_REQUEST_FAILED", "Payout request failed", err)
	}

	msg := fmt.Sprintf("Payout requested: %s for %s (%d submissions)", payout.UUID.String(), payout.AmountDollars(), submissionCount)
	_ = writeAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionPayoutRequested, msg, true, nil, metadata)
	s.notifyUser(ctx, user, services.Notification{
		Event: services.EventPayoutRequested,
		Title: "Payout requested",
		Body:  fmt.Sprintf("Payout of %s for %d views is pending review.", payout.AmountDollars(), payout.TotalViews),
	})

	return &dto.RequestPayoutResponse{
		Message:         "Payout requested",
		UUID:            payout.UUID.String(),
		AmountCents:     payout.AmountCents,
		AmountDisplay:   payout.AmountDollars(),
		TotalViews:      payout.TotalViews,
		SubmissionCount: submissionCount,
		Status:          string(payout.Status),
		RequestedAt:     payout.RequestedAt.Format(time.RFC3339),
	}, nil
}

// ApprovePayout marks a pending payout as approved for disbursement
func (s *PayoutFlowImpl) ApprovePayout(ctx context.Context, req *dto.ProcessPayoutRequest, metadata *ClientMetadata) (*dto.ProcessPayoutResponse, error) {
	payout, err := s.getPayout(ctx, req.PayoutUUID)
	if err != nil {
		return nil, err
	}
	if !payout.CanTransitionTo(models.PayoutStatusApproved) {
		return nil, NewBusinessError("PAYOUT_ALREADY_PROCESSED", "Payout already processed", ErrPayoutAlreadyProcessed)
	}

	now := s.clock.Now()
	payout.Status = models.PayoutStatusApproved
	payout.ProcessedAt = &now

	if err := s.payoutRepo.Update(ctx, payout); err != nil {
		return nil, NewBusinessError("PAYOUT_UPDATE_FAILED", "Failed to approve payout", err)
	}

	msg := fmt.Sprintf("Payout approved: %s (%s)", payout.UUID.String(), payout.AmountDollars())
	_ = writeAuditLog(ctx, s.auditRepo, &payout.UserID, models.AuditActionPayoutApproved, msg, true, nil, metadata)
	s.notifyUserByID(ctx, payout.UserID, services.Notification{
		Event: services.EventPayoutProcessed,
		Title: "Payout approved",
		Body:  fmt.Sprintf("Your payout of %s was approved.", payout.AmountDollars()),
	})

	return &dto.ProcessPayoutResponse{
		Message:     "Payout approved",
		Status:      string(payout.Status),
		ProcessedAt: now.Format(time.RFC3339),
	}, nil
}

// RejectPayout rejects a pending payout and releases its submissions so
// their views become claimable again.
func (s *PayoutFlowImpl) RejectPayout(ctx context.Context, req *dto.ProcessPayoutRequest, metadata *ClientMetadata) (*dto.ProcessPayoutResponse, error) {
	payout, err := s.getPayout(ctx, req.PayoutUUID)
	if err != nil {
		return nil, err
	}
	if !payout.CanTransitionTo(models.PayoutStatusRejected) {
		return nil, NewBusinessError("PAYOUT_ALREADY_PROCESSED", "Payout already processed", ErrPayoutAlreadyProcessed)
	}

	now := s.clock.Now()
	payout.Status = models.PayoutStatusRejected
	payout.ProcessedAt = &now
	payout.RejectionReason = req.Reason

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.payoutRepo.Update(txCtx, payout); err != nil {
			return err
		}
		_, err := s.submissionRepo.UnmarkPaid(txCtx, payout.ID)
		return err
	})
	if err != nil {
		return nil, NewBusinessError("PAYOUT_UPDATE_FAILED", "Failed to reject payout", err)
	}

	reason := "no reason given"
	if req.Reason != nil && *req.Reason != "" {
		reason = *req.Reason
	}
	msg := fmt.Sprintf("Payout rejected: %s (%s)", payout.UUID.String(), reason)
	_ = writeAuditLog(ctx, s.auditRepo, &payout.UserID, models.AuditActionPayoutRejected, msg, true, nil, metadata)
	s.notifyUserByID(ctx, payout.UserID, services.Notification{
		Event: services.EventPayoutProcessed,
		Title: "Payout rejected",
		Body:  fmt.Sprintf("Your payout was rejected: %s. The views remain claimable.", reason),
	})

	return &dto.ProcessPayoutResponse{
		Message:     "Payout rejected",
		Status:      string(payout.Status),
		ProcessedAt: now.Format(time.RFC3339),
	}, nil
}

// ListPayouts lists payouts with optional user and status filters
func (s *PayoutFlowImpl) ListPayouts(ctx context.Context, req *dto.ListPayoutsRequest) (*dto.ListPayoutsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}

	filter := models.PayoutFilter{UserID: req.UserID}
	if req.Status != nil {
		status := models.PayoutStatus(*req.Status)
		filter.Status = &status
	}

	payouts, err := s.payoutRepo.ByFilter(ctx, filter, "requested_at DESC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("PAYOUT_LIST_FAILED", "Failed to list payouts", err)
	}
	total, err := s.payoutRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("PAYOUT_COUNT_FAILED", "Failed to count payouts", err)
	}

	resp := &dto.ListPayoutsResponse{
		Payouts: make([]dto.PayoutItem, 0, len(payouts)),
		Total:   total,
		Page:    page,
		Limit:   limit,
	}
	for _, p := range payouts {
		resp.Payouts = append(resp.Payouts, dto.PayoutItem{
			UUID:            p.UUID.String(),
			CampaignID:      p.CampaignID,
			AmountCents:     p.AmountCents,
			AmountDisplay:   p.AmountDollars(),
			TotalViews:      p.TotalViews,
			Status:          string(p.Status),
			RequestedAt:     p.RequestedAt,
			ProcessedAt:     p.ProcessedAt,
			RejectionReason: p.RejectionReason,
		})
	}
	return resp, nil
}

// ExportPayoutsExcel builds an xlsx workbook of payouts for the finance team
func (s *PayoutFlowImpl) ExportPayoutsExcel(ctx context.Context, status *string) (string, []byte, error) {
	filter := models.PayoutFilter{}
	if status != nil {
		st := models.PayoutStatus(*status)
		filter.Status = &st
	}

	payouts, err := s.payoutRepo.ByFilter(ctx, filter, "requested_at ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("PAYOUT_EXPORT_FAILED", "Failed to load payouts for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "payouts"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"uuid", "user_id", "campaign_id", "amount_cents", "amount", "total_views", "status", "payout_method", "payout_address", "requested_at", "processed_at", "rejection_reason"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, p := range payouts {
		method := ""
		if p.PayoutMethod != nil {
			method = *p.PayoutMethod
		}
		address := ""
		if p.PayoutAddress != nil {
			address = *p.PayoutAddress
		}
		processedAt := ""
		if p.ProcessedAt != nil {
			processedAt = p.ProcessedAt.UTC().Format(time.RFC3339)
		}
		reason := ""
		if p.RejectionReason != nil {
			reason = *p.RejectionReason
		}

		record := []any{
			p.UUID.String(),
			p.UserID,
			p.CampaignID,
			p.AmountCents,
			p.AmountDollars(),
			p.TotalViews,
			string(p.Status),
			method,
			address,
			p.RequestedAt.UTC().Format(time.RFC3339),
			processedAt,
			reason,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	var buf bytes.Buffer
	if err := xl.Write(&buf); err != nil {
		return "", nil, NewBusinessError("PAYOUT_EXPORT_FAILED", "Failed to render export", err)
	}

	filename := fmt.Sprintf("payouts_%s.xlsx", s.clock.Now().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

func (s *PayoutFlowImpl) getPayout(ctx context.Context, payoutUUID string) (*models.Payout, error) {
	payout, err := s.payoutRepo.ByUUID(ctx, payoutUUID)
	if err != nil {
		return nil, NewBusinessError("PAYOUT_LOOKUP_FAILED", "Failed to lookup payout", err)
	}
	if payout == nil {
		return nil, NewBusinessError("PAYOUT_NOT_FOUND", "Payout not found", ErrPayoutNotFound)
	}
	return payout, nil
}

func (s *PayoutFlowImpl) notifyUser(ctx context.Context, user *models.User, n services.Notification) {
	if s.notifier == nil {
		return
	}
	n.UserRef = user.AccountID
	go func(n services.Notification) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.notifier.Notify(ctx, n)
	}(n)
}

func (s *PayoutFlowImpl) notifyUserByID(ctx context.Context, userID uint, n services.Notification) {
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
