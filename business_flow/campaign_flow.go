// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clipforge/clipforge/app/dto"
	"github.com/clipforge/clipforge/app/services"
	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/repository"
	"github.com/clipforge/clipforge/utils"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const activeCampaignsCacheKey = "campaigns:active"

// CampaignFlow handles the campaign business logic
type CampaignFlow interface {
	CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CreateCampaignResponse, error)
	EndCampaign(ctx context.Context, req *dto.EndCampaignRequest, metadata *ClientMetadata) (*dto.EndCampaignResponse, error)
	GetCampaign(ctx context.Context, req *dto.GetCampaignRequest) (*dto.GetCampaignResponse, error)
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error)
	JoinCampaign(ctx context.Context, req *dto.JoinCampaignRequest, metadata *ClientMetadata) (*dto.JoinCampaignResponse, error)
	LeaveCampaign(ctx context.Context, req *dto.LeaveCampaignRequest, metadata *ClientMetadata) (*dto.LeaveCampaignResponse, error)
}

// CampaignFlowImpl implements the campaign business flow
type CampaignFlowImpl struct {
	campaignRepo repository.CampaignRepository
	memberRepo   repository.CampaignMemberRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditLogRepository
	adapters     *services.AdapterRegistry
	rateLimiter  RateLimiter
	rateLimitCfg config.RateLimitConfig
	cacheConfig  *config.CacheConfig
	rc           *redis.Client
	db           *gorm.DB
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	campaignRepo repository.CampaignRepository,
	memberRepo repository.CampaignMemberRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	adapters *services.AdapterRegistry,
	rateLimiter RateLimiter,
	rateLimitCfg config.RateLimitConfig,
	db *gorm.DB,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) CampaignFlow {
	return &CampaignFlowImpl{
		campaignRepo: campaignRepo,
		memberRepo:   memberRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		adapters:     adapters,
		rateLimiter:  rateLimiter,
		rateLimitCfg: rateLimitCfg,
		cacheConfig:  cacheConfig,
		rc:           rc,
		db:           db,
	}
}

// CreateCampaign handles the complete campaign creation process
func (s *CampaignFlowImpl) CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CreateCampaignResponse, error) {
	campaignType := models.CampaignType(req.Type)
	if !campaignType.Valid() {
		return nil, NewBusinessErrorf("CAMPAIGN_VALIDATION_FAILED", "unknown campaign type: %s", nil, req.Type)
	}

	platforms := make([]string, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		platform, err := models.ParsePlatform(p)
		if err != nil {
			return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Campaign validation failed", err)
		}
		// Refuse campaigns no adapter can serve; submissions against them
		// would never be reconciled.
		if !s.adapters.Has(platform) {
			return nil, NewBusinessErrorf("CAMPAIGN_PLATFORM_UNSERVICEABLE", "no adapter configured for platform %s", ErrCampaignNoAdapter, platform)
		}
		platforms = append(platforms, string(platform))
	}

	existing, err := s.campaignRepo.ByName(ctx, req.Name)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to check campaign name", err)
	}
	if existing != nil {
		return nil, NewBusinessError("CAMPAIGN_NAME_TAKEN", "Campaign name already exists", ErrCampaignNameTaken)
	}

	campaign := &models.Campaign{
		Name:           req.Name,
		Description:    req.Description,
		Type:           campaignType,
		Platforms:      pq.StringArray(platforms),
		ContentSource:  req.ContentSource,
		RatePer1KCents: req.RatePer1KCents,
		Status:         models.CampaignStatusActive,
		CreatedAt:      utils.UTCNow(),
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.campaignRepo.Save(txCtx, campaign)
	})
	if err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("CAMPAIGN_NAME_TAKEN", "Campaign name already exists", ErrCampaignNameTaken)
		}
		return nil, NewBusinessError("CAMPAIGN_CREATION_FAILED", "Campaign creation failed", err)
	}

	s.invalidateCampaignCache(ctx)

	msg := fmt.Sprintf("Campaign created: %s", campaign.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, nil, models.AuditActionCampaignCreated, msg, true, nil, metadata)

	return &dto.CreateCampaignResponse{
		Message:   "Campaign created successfully",
		UUID:      campaign.UUID.String(),
		Status:    string(campaign.Status),
		CreatedAt: campaign.CreatedAt.Format(time.RFC3339),
	}, nil
}

// EndCampaign closes a campaign. Ended campaigns accept no new submissions
// or joins; existing submissions keep being reconciled and remain payable.
func (s *CampaignFlowImpl) EndCampaign(ctx context.Context, req *dto.EndCampaignRequest, metadata *ClientMetadata) (*dto.EndCampaignResponse, error) {
	campaign, err := getCampaign(ctx, s.campaignRepo, req.UUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign.Status == models.CampaignStatusEnded {
		return nil, NewBusinessError("CAMPAIGN_ALREADY_ENDED", "Campaign is already ended", ErrCampaignNotActive)
	}

	endedAt := utils.UTCNow()
	if err := s.campaignRepo.UpdateStatus(ctx, campaign.ID, models.CampaignStatusEnded, &endedAt); err != nil {
		return nil, NewBusinessError("CAMPAIGN_END_FAILED", "Failed to end campaign", err)
	}

	s.invalidateCampaignCache(ctx)

	msg := fmt.Sprintf("Campaign ended: %s", campaign.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, nil, models.AuditActionCampaignEnded, msg, true, nil, metadata)

	return &dto.EndCampaignResponse{
		Message: "Campaign ended successfully",
		EndedAt: endedAt.Format(time.RFC3339),
	}, nil
}

// GetCampaign retrieves a single campaign by UUID
func (s *CampaignFlowImpl) GetCampaign(ctx context.Context, req *dto.GetCampaignRequest) (*dto.GetCampaignResponse, error) {
	campaign, err := getCampaign(ctx, s.campaignRepo, req.UUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}

	return &dto.GetCampaignResponse{Campaign: toCampaignItem(campaign)}, nil
}

// ListCampaigns lists campaigns. The active set is served from a short-lived
// redis cache since it backs every submission form.
func (s *CampaignFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}

	onlyActive := req.Status != nil && *req.Status == string(models.CampaignStatusActive)
	if onlyActive && page == 1 {
		if resp := s.cachedActiveCampaigns(ctx, limit); resp != nil {
			return resp, nil
		}
	}

	filter := models.CampaignFilter{}
	if req.Status != nil {
		status := models.CampaignStatus(*req.Status)
		filter.Status = &status
	}

	campaigns, err := s.campaignRepo.ByFilter(ctx, filter, "created_at DESC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to list campaigns", err)
	}
	total, err := s.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_COUNT_FAILED", "Failed to count campaigns", err)
	}

	resp := &dto.ListCampaignsResponse{
		Campaigns: make([]dto.CampaignItem, 0, len(campaigns)),
		Total:     total,
		Page:      page,
		Limit:     limit,
	}
	for _, c := range campaigns {
		resp.Campaigns = append(resp.Campaigns, toCampaignItem(c))
	}

	if onlyActive && page == 1 {
		s.storeActiveCampaigns(ctx, resp)
	}

	return resp, nil
}

// JoinCampaign adds a creator to an active campaign
func (s *CampaignFlowImpl) JoinCampaign(ctx context.Context, req *dto.JoinCampaignRequest, metadata *ClientMetadata) (*dto.JoinCampaignResponse, error) {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user.IsBanned() {
		return nil, NewBusinessError("USER_BANNED", "User is banned", ErrUserBanned)
	}

	if err := s.rateLimiter.TryAct(ctx, user.AccountID, ActionJoinCampaign, s.rateLimitCfg.JoinInterval); err != nil {
		if IsRateLimited(err) {
			return nil, NewBusinessError("JOIN_RATE_LIMITED", "Too many join attempts", err)
		}
		return nil, NewBusinessError("RATE_LIMIT_CHECK_FAILED", "Failed to check rate limit", err)
	}

	campaign, err := getCampaign(ctx, s.campaignRepo, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if !campaign.IsActive() {
		return nil, NewBusinessError("CAMPAIGN_NOT_ACTIVE", "Campaign is not active", ErrCampaignNotActive)
	}

	existing, err := s.memberRepo.ByCampaignAndUser(ctx, campaign.ID, user.ID)
	if err != nil {
		return nil, NewBusinessError("MEMBERSHIP_LOOKUP_FAILED", "Failed to check membership", err)
	}
	if existing != nil {
		return nil, NewBusinessError("ALREADY_MEMBER", "User is already a member", ErrAlreadyMember)
	}

	member := &models.CampaignMember{
		CampaignID: campaign.ID,
		UserID:     user.ID,
		JoinedAt:   utils.UTCNow(),
	}
	if err := s.memberRepo.Save(ctx, member); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("ALREADY_MEMBER", "User is already a member", ErrAlreadyMember)
		}
		return nil, NewBusinessError("MEMBERSHIP_SAVE_FAILED", "Failed to join campaign", err)
	}

	msg := fmt.Sprintf("User %s joined campaign %s", user.AccountID, campaign.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionCampaignJoined, msg, true, nil, metadata)

	return &dto.JoinCampaignResponse{
		Message:  "Joined campaign successfully",
		JoinedAt: member.JoinedAt.Format(time.RFC3339),
	}, nil
}

// LeaveCampaign removes a creator from a campaign. Their submissions stay.
func (s *CampaignFlowImpl) LeaveCampaign(ctx context.Context, req *dto.LeaveCampaignRequest, metadata *ClientMetadata) (*dto.LeaveCampaignResponse, error) {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	campaign, err := getCampaign(ctx, s.campaignRepo, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}

	if err := s.memberRepo.Remove(ctx, campaign.ID, user.ID); err != nil {
		return nil, NewBusinessError("NOT_MEMBER", "User is not a member of the campaign", ErrNotCampaignMember)
	}

	msg := fmt.Sprintf("User %s left campaign %s", user.AccountID, campaign.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionCampaignLeft, msg, true, nil, metadata)

	return &dto.LeaveCampaignResponse{Message: "Left campaign successfully"}, nil
}

func (s *CampaignFlowImpl) cacheKey() string {
	prefix := ""
	if s.cacheConfig != nil {
		prefix = s.cacheConfig.RedisPrefix
	}
	return prefix + activeCampaignsCacheKey
}

func (s *CampaignFlowImpl) cacheEnabled() bool {
	return s.rc != nil && s.cacheConfig != nil && s.cacheConfig.Enabled
}

func (s *CampaignFlowImpl) cachedActiveCampaigns(ctx context.Context, limit int) *dto.ListCampaignsResponse {
	if !s.cacheEnabled() {
		return nil
	}
	raw, err := s.rc.Get(ctx, s.cacheKey()).Bytes()
	if err != nil {
		return nil
	}
	var resp dto.ListCampaignsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	if resp.Limit != limit {
		return nil
	}
	return &resp
}

func (s *CampaignFlowImpl) storeActiveCampaigns(ctx context.Context, resp *dto.ListCampaignsResponse) {
	if !s.cacheEnabled() {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = s.rc.Set(ctx, s.cacheKey(), raw, s.cacheConfig.DefaultTTL).Err()
}

func (s *CampaignFlowImpl) invalidateCampaignCache(ctx context.Context) {
	if !s.cacheEnabled() {
		return
	}
	_ = s.rc.Del(ctx, s.cacheKey()).Err()
}

func toCampaignItem(c *models.Campaign) dto.CampaignItem {
	return dto.CampaignItem{
		UUID:           c.UUID.String(),
		Name:           c.Name,
		Description:    c.Description,
		Type:           string(c.Type),
		Platforms:      []string(c.Platforms),
		ContentSource:  c.ContentSource,
		RatePer1KCents: c.RatePer1KCents,
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt,
		EndedAt:        c.EndedAt,
	}
}
