// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/clipforge/clipforge/app/dto"
	"github.com/clipforge/clipforge/app/services"
	"github.com/gofiber/fiber/v3"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate validates creator JWTs and stores the user id in the request context
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, failed := bearerToken(c)
		if failed != nil {
			return failed(c)
		}

		claims, err := m.tokenService.ValidateUserToken(token)
		if err != nil {
			return unauthorizedToken(c, err)
		}

		// Store user information in context for downstream handlers
		c.Locals("user_id", claims.UserID)
		c.Locals("token_id", claims.TokenID)

		// Store RequestID for audit logging
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// AdminAuthenticate validates admin JWTs and sets admin-specific context values
func (m *AuthMiddleware) AdminAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, failed := bearerToken(c)
		if failed != nil {
			return failed(c)
		}

		claims, err := m.tokenService.ValidateAdminToken(token)
		if err != nil {
			return unauthorizedToken(c, err)
		}

		c.Locals("admin_username", claims.Username)
		c.Locals("token_id", claims.TokenID)
		c.Locals("is_admin", true)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// bearerToken extracts the token from the Authorization header. On failure the
// second return value renders the appropriate 401 response.
func bearerToken(c fiber.Ctx) (string, func(fiber.Ctx) error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", func(c fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authorization header is required",
				Error:   dto.ErrorDetail{Code: "MISSING_AUTHORIZATION_HEADER"},
			})
		}
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", func(c fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid authorization header format. Expected 'Bearer <token>'",
				Error:   dto.ErrorDetail{Code: "INVALID_AUTHORIZATION_FORMAT"},
			})
		}
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", func(c fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Access token is required",
				Error:   dto.ErrorDetail{Code: "MISSING_ACCESS_TOKEN"},
			})
		}
	}

	return token, nil
}

func unauthorizedToken(c fiber.Ctx, err error) error {
	var errorCode string
	var message string

	if errors.Is(err, services.ErrTokenExpired) {
		errorCode = "TOKEN_EXPIRED"
		message = "Access token has expired"
	} else if errors.Is(err, services.ErrTokenInvalid) {
		errorCode = "TOKEN_INVALID"
		message = "Invalid access token"
	} else {
		errorCode = "TOKEN_VALIDATION_FAILED"
		message = "Token validation failed"
	}

	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: errorCode},
	})
}
