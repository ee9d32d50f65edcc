// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"

	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/repository"
	"github.com/clipforge/clipforge/utils"
)

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// getUser loads a user by ID or fails with ErrUserNotFound
func getUser(ctx context.Context, repo repository.UserRepository, userID uint) (*models.User, error) {
	user, err := repo.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// getCampaign loads a campaign by UUID or fails with ErrCampaignNotFound
func getCampaign(ctx context.Context, repo repository.CampaignRepository, campaignUUID string) (*models.Campaign, error) {
	campaign, err := repo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, ErrCampaignNotFound
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

// writeAuditLog records one audit entry. Audit failures are swallowed by
// callers; the business operation outcome must not depend on the audit trail.
func writeAuditLog(ctx context.Context, repo repository.AuditLogRepository, userID *uint, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  utils.ToPtr(description),
		Success:      utils.ToPtr(success),
		ErrorMessage: errMsg,
		CreatedAt:    utils.UTCNow(),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			entry.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			entry.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.RequestID != "" {
			entry.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}
	return repo.Save(ctx, entry)
}
