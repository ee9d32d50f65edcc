package handlers

import (
	"context"
	"log"

	"github.com/clipforge/clipforge/app/dto"
	businessflow "github.com/clipforge/clipforge/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// PayoutHandlerInterface defines the contract for payout handlers
type PayoutHandlerInterface interface {
	RequestPayout(c fiber.Ctx) error
	ListMyPayouts(c fiber.Ctx) error
	ListPayouts(c fiber.Ctx) error
	ApprovePayout(c fiber.Ctx) error
	RejectPayout(c fiber.Ctx) error
	ExportPayouts(c fiber.Ctx) error
}

// PayoutHandler handles payout-related HTTP requests
type PayoutHandler struct {
	payoutFlow businessflow.PayoutFlow
	validator  *validator.Validate
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(payoutFlow businessflow.PayoutFlow) *PayoutHandler {
	return &PayoutHandler{
		payoutFlow: payoutFlow,
		validator:  validator.New(),
	}
}

func (h *PayoutHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PayoutHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RequestPayout handles a creator requesting a payout for a campaign
func (h *PayoutHandler) RequestPayout(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.RequestPayoutRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	req.CampaignUUID = c.Params("uuid")
	req.UserID = userID
	if req.CampaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.payoutFlow.RequestPayout(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsUserBanned(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Account is banned", "USER_BANNED", nil)
		}
		if businessflow.IsNoEligibleSubmissions(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "No approved unpaid submissions to pay out", "NO_ELIGIBLE_SUBMISSIONS", nil)
		}
		if businessflow.IsRateLimited(err) {
			return h.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many payout requests, try again later", "RATE_LIMITED", nil)
		}
		if businessflow.IsConcurrencyConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Payout request conflicted with another, try again", "CONCURRENCY_CONFLICT", nil)
		}

		log.Println("Payout request failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Payout request failed", "PAYOUT_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Payout requested", result)
}

// ListMyPayouts handles a creator listing their own payouts
func (h *PayoutHandler) ListMyPayouts(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.ListPayoutsRequest{
		UserID: &userID,
		Status: queryString(c, "status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}

	return h.listPayouts(c, &req)
}

// ListPayouts handles the moderator payout listing across all creators
func (h *PayoutHandler) ListPayouts(c fiber.Ctx) error {
	req := dto.ListPayoutsRequest{
		Status: queryString(c, "status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}

	return h.listPayouts(c, &req)
}

func (h *PayoutHandler) listPayouts(c fiber.Ctx, req *dto.ListPayoutsRequest) error {
	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.payoutFlow.ListPayouts(ctx, req)
	if err != nil {
		log.Println("Payout listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Payout listing failed", "PAYOUT_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Payouts retrieved", result)
}

// ApprovePayout handles a moderator approving a pending payout
func (h *PayoutHandler) ApprovePayout(c fiber.Ctx) error {
	return h.process(c, h.payoutFlow.ApprovePayout, "Payout approved", "PAYOUT_APPROVE_FAILED")
}

// RejectPayout handles a moderator rejecting a pending payout
func (h *PayoutHandler) RejectPayout(c fiber.Ctx) error {
	return h.process(c, h.payoutFlow.RejectPayout, "Payout rejected", "PAYOUT_REJECT_FAILED")
}

func (h *PayoutHandler) process(c fiber.Ctx, decide func(ctx context.Context, req *dto.ProcessPayoutRequest, metadata *businessflow.ClientMetadata) (*dto.ProcessPayoutResponse, error), successMsg, failCode string) error {
	var req dto.ProcessPayoutRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	req.PayoutUUID = c.Params("uuid")
	if req.PayoutUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Payout UUID is required", "MISSING_PAYOUT_UUID", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := decide(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsPayoutNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Payout not found", "PAYOUT_NOT_FOUND", nil)
		}
		if businessflow.IsPayoutAlreadyProcessed(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Payout has already been processed", "PAYOUT_ALREADY_PROCESSED", nil)
		}

		log.Println("Payout processing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Payout processing failed", failCode, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, successMsg, result)
}

// ExportPayouts streams the payout report as an Excel workbook
func (h *PayoutHandler) ExportPayouts(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	filename, content, err := h.payoutFlow.ExportPayoutsExcel(ctx, queryString(c, "status"))
	if err != nil {
		log.Println("Payout export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Payout export failed", "PAYOUT_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(content)
}
