package handlers

import (
	"log"

	"github.com/clipforge/clipforge/app/dto"
	businessflow "github.com/clipforge/clipforge/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	EndCampaign(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	JoinCampaign(c fiber.Ctx) error
	LeaveCampaign(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	validator    *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow: campaignFlow,
		validator:    validator.New(),
	}
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateCampaign handles campaign creation by a moderator
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.campaignFlow.CreateCampaign(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNameTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign name already in use", "CAMPAIGN_NAME_TAKEN", nil)
		}
		if businessflow.IsCampaignNoAdapter(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "A requested platform has no configured integration", "PLATFORM_NOT_CONFIGURED", nil)
		}

		log.Println("Campaign creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign creation failed", "CAMPAIGN_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign created successfully", result)
}

// EndCampaign handles closing a campaign to new submissions
func (h *CampaignHandler) EndCampaign(c fiber.Ctx) error {
	req := dto.EndCampaignRequest{UUID: c.Params("uuid")}
	if req.UUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.campaignFlow.EndCampaign(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotActive(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign has already ended", "CAMPAIGN_ALREADY_ENDED", nil)
		}

		log.Println("Campaign end failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign end failed", "CAMPAIGN_END_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign ended", result)
}

// GetCampaign handles the public single-campaign lookup
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	req := dto.GetCampaignRequest{UUID: c.Params("uuid")}
	if req.UUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.campaignFlow.GetCampaign(ctx, &req)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Campaign lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign lookup failed", "CAMPAIGN_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved", result)
}

// ListCampaigns handles the public campaign listing
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	req := dto.ListCampaignsRequest{
		Status: queryString(c, "status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.campaignFlow.ListCampaigns(ctx, &req)
	if err != nil {
		log.Println("Campaign listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign listing failed", "CAMPAIGN_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaigns retrieved", result)
}

// JoinCampaign handles a creator joining a campaign
func (h *CampaignHandler) JoinCampaign(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.JoinCampaignRequest{
		CampaignUUID: c.Params("uuid"),
		UserID:       userID,
	}
	if req.CampaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.campaignFlow.JoinCampaign(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotActive(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign has ended", "CAMPAIGN_ENDED", nil)
		}
		if businessflow.IsAlreadyMember(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Already a member of this campaign", "ALREADY_MEMBER", nil)
		}
		if businessflow.IsUserBanned(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Account is banned", "USER_BANNED", nil)
		}
		if businessflow.IsRateLimited(err) {
			return h.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many join attempts, try again later", "RATE_LIMITED", nil)
		}

		log.Println("Campaign join failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign join failed", "CAMPAIGN_JOIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Joined campaign", result)
}

// LeaveCampaign handles a creator leaving a campaign
func (h *CampaignHandler) LeaveCampaign(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.LeaveCampaignRequest{
		CampaignUUID: c.Params("uuid"),
		UserID:       userID,
	}
	if req.CampaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.campaignFlow.LeaveCampaign(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsNotCampaignMember(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Not a member of this campaign", "NOT_A_MEMBER", nil)
		}

		log.Println("Campaign leave failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign leave failed", "CAMPAIGN_LEAVE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Left campaign", result)
}
