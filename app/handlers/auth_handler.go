package handlers

import (
	"log"

	"github.com/clipforge/clipforge/app/dto"
	businessflow "github.com/clipforge/clipforge/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AuthHandlerInterface defines the contract for auth handlers
type AuthHandlerInterface interface {
	Register(c fiber.Ctx) error
	AdminLogin(c fiber.Ctx) error
	BanUser(c fiber.Ctx) error
}

// AuthHandler handles registration, admin login, and ban administration
type AuthHandler struct {
	authFlow  businessflow.AuthFlow
	validator *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authFlow businessflow.AuthFlow) *AuthHandler {
	return &AuthHandler{
		authFlow:  authFlow,
		validator: validator.New(),
	}
}

func (h *AuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AuthHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Register handles creator account registration
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.authFlow.RegisterUser(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsAccountIDTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Account already registered", "ACCOUNT_ID_TAKEN", nil)
		}

		log.Println("User registration failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Registration failed", "REGISTRATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Account registered successfully", result)
}

// AdminLogin handles moderator authentication
func (h *AuthHandler) AdminLogin(c fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorList(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.authFlow.AdminLogin(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsIncorrectCredentials(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Incorrect username or password", "INCORRECT_CREDENTIALS", nil)
		}

		log.Println("Admin login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// BanUser handles banning or unbanning a creator account
func (h *AuthHandler) BanUser(c fiber.Ctx) error {
	var req dto.BanUserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	req.AccountID = c.Params("account_id")
	if req.AccountID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Account id is required", "MISSING_ACCOUNT_ID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.authFlow.SetUserBanned(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
		}

		log.Println("Ban update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Ban update failed", "BAN_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Ban status updated", result)
}
