package handlers

import (
	"context"
	"log"

	"github.com/clipforge/clipforge/app/dto"
	businessflow "github.com/clipforge/clipforge/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// SubmissionHandlerInterface defines the contract for submission handlers
type SubmissionHandlerInterface interface {
	CreateSubmission(c fiber.Ctx) error
	ListMySubmissions(c fiber.Ctx) error
	GetSubmissionHistory(c fiber.Ctx) error
	ListSubmissions(c fiber.Ctx) error
	ApproveSubmission(c fiber.Ctx) error
	RejectSubmission(c fiber.Ctx) error
	FlagSubmission(c fiber.Ctx) error
}

// SubmissionHandler handles submission-related HTTP requests
type SubmissionHandler struct {
	submissionFlow businessflow.SubmissionFlow
	validator      *validator.Validate
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionFlow businessflow.SubmissionFlow) *SubmissionHandler {
	return &SubmissionHandler{
		submissionFlow: submissionFlow,
		validator:      validator.New(),
	}
}

func (h *SubmissionHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SubmissionHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateSubmission handles a creator submitting a video link to a campaign
func (h *SubmissionHandler) CreateSubmission(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.CreateSubmissionRequest
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

	result, err := h.submissionFlow.CreateSubmission(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotActive(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign has ended", "CAMPAIGN_ENDED", nil)
		}
		if businessflow.IsUserBanned(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Account is banned", "USER_BANNED", nil)
		}
		if businessflow.IsNotCampaignMember(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Join the campaign before submitting", "NOT_A_MEMBER", nil)
		}
		if businessflow.IsPlatformUnrecognized(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Video URL does not belong to a supported platform", "PLATFORM_UNRECOGNIZED", nil)
		}
		if businessflow.IsPlatformNotAllowed(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Platform is not allowed by this campaign", "PLATFORM_NOT_ALLOWED", nil)
		}
		if businessflow.IsDuplicateSubmission(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "This video has already been submitted to the campaign", "DUPLICATE_SUBMISSION", nil)
		}
		if businessflow.IsRateLimited(err) {
			return h.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many submissions, try again later", "RATE_LIMITED", nil)
		}

		log.Println("Submission creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Submission failed", "SUBMISSION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Submission created", result)
}

// ListMySubmissions handles a creator listing their own submissions
func (h *SubmissionHandler) ListMySubmissions(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.ListSubmissionsRequest{
		CampaignUUID: queryString(c, "campaign_uuid"),
		UserID:       &userID,
		Status:       queryString(c, "status"),
		Page:         queryInt(c, "page", 1),
		Limit:        queryInt(c, "limit", 20),
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	return h.listSubmissions(c, &req)
}

// ListSubmissions handles the moderator listing across all creators
func (h *SubmissionHandler) ListSubmissions(c fiber.Ctx) error {
	req := dto.ListSubmissionsRequest{
		CampaignUUID: queryString(c, "campaign_uuid"),
		Status:       queryString(c, "status"),
		Page:         queryInt(c, "page", 1),
		Limit:        queryInt(c, "limit", 20),
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	return h.listSubmissions(c, &req)
}

func (h *SubmissionHandler) listSubmissions(c fiber.Ctx, req *dto.ListSubmissionsRequest) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.submissionFlow.ListSubmissions(ctx, req)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Submission listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Submission listing failed", "SUBMISSION_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Submissions retrieved", result)
}

// GetSubmissionHistory handles fetching the recorded view history of a submission
func (h *SubmissionHandler) GetSubmissionHistory(c fiber.Ctx) error {
	submissionUUID := c.Params("uuid")
	if submissionUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Submission UUID is required", "MISSING_SUBMISSION_UUID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.submissionFlow.GetSubmissionHistory(ctx, submissionUUID)
	if err != nil {
		if businessflow.IsSubmissionNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Submission not found", "SUBMISSION_NOT_FOUND", nil)
		}

		log.Println("Submission history failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Submission history failed", "SUBMISSION_HISTORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Submission history retrieved", result)
}

// ApproveSubmission handles a moderator approving a submission
func (h *SubmissionHandler) ApproveSubmission(c fiber.Ctx) error {
	return h.review(c, h.submissionFlow.ApproveSubmission, "Submission approved", "SUBMISSION_APPROVE_FAILED")
}

// RejectSubmission handles a moderator rejecting a submission
func (h *SubmissionHandler) RejectSubmission(c fiber.Ctx) error {
	return h.review(c, h.submissionFlow.RejectSubmission, "Submission rejected", "SUBMISSION_REJECT_FAILED")
}

func (h *SubmissionHandler) review(c fiber.Ctx, decide func(ctx context.Context, req *dto.ReviewSubmissionRequest, metadata *businessflow.ClientMetadata) (*dto.ReviewSubmissionResponse, error), successMsg, failCode string) error {
	var req dto.ReviewSubmissionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	req.SubmissionUUID = c.Params("uuid")
	if req.SubmissionUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Submission UUID is required", "MISSING_SUBMISSION_UUID", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := decide(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsSubmissionNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Submission not found", "SUBMISSION_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Submission is already in a terminal state", "INVALID_TRANSITION", nil)
		}
		if businessflow.IsConcurrencyConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Submission was modified concurrently, retry", "CONCURRENT_MODIFICATION", nil)
		}

		log.Println("Submission review failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Submission review failed", failCode, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, successMsg, result)
}

// FlagSubmission handles a moderator manually flagging a submission
func (h *SubmissionHandler) FlagSubmission(c fiber.Ctx) error {
	var req dto.FlagSubmissionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	req.SubmissionUUID = c.Params("uuid")
	if req.SubmissionUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Submission UUID is required", "MISSING_SUBMISSION_UUID", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.submissionFlow.FlagSubmission(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsSubmissionNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Submission not found", "SUBMISSION_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Submission cannot be flagged in its current state", "INVALID_TRANSITION", nil)
		}
		if businessflow.IsConcurrencyConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Submission was modified concurrently, retry", "CONCURRENT_MODIFICATION", nil)
		}

		log.Println("Submission flag failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Submission flag failed", "SUBMISSION_FLAG_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Submission flagged", result)
}
