// Package businessflow contains the core business logic and use cases for account workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/clipforge/clipforge/app/dto"
	"github.com/clipforge/clipforge/app/services"
	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthFlow handles account registration and moderator login
type AuthFlow interface {
	RegisterUser(ctx context.Context, req *dto.RegisterUserRequest, metadata *ClientMetadata) (*dto.RegisterUserResponse, error)
	AdminLogin(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	SetUserBanned(ctx context.Context, req *dto.BanUserRequest, metadata *ClientMetadata) (*dto.BanUserResponse, error)
}

// AuthFlowImpl implements the auth business flow
type AuthFlowImpl struct {
	userRepo    repository.UserRepository
	auditRepo   repository.AuditLogRepository
	tokens      services.TokenService
	adminConfig config.AdminConfig
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	tokens services.TokenService,
	adminConfig config.AdminConfig,
) AuthFlow {
	return &AuthFlowImpl{
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		tokens:      tokens,
		adminConfig: adminConfig,
	}
}

// RegisterUser creates a creator account keyed by its external account ID
func (s *AuthFlowImpl) RegisterUser(ctx context.Context, req *dto.RegisterUserRequest, metadata *ClientMetadata) (*dto.RegisterUserResponse, error) {
	existing, err := s.userRepo.ByAccountID(ctx, req.AccountID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to check account ID", err)
	}
	if existing != nil {
		return nil, NewBusinessError("ACCOUNT_ID_TAKEN", "Account ID already registered", ErrAccountIDTaken)
	}

	user := &models.User{
		AccountID: req.AccountID,
		Username:  req.Username,
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("ACCOUNT_ID_TAKEN", "Account ID already registered", ErrAccountIDTaken)
		}
		return nil, NewBusinessError("USER_CREATION_FAILED", "Failed to create user", err)
	}

	token, err := s.tokens.GenerateUserToken(user.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue token", err)
	}

	return &dto.RegisterUserResponse{
		Message: "User registered",
		UUID:    user.UUID.String(),
		Token:   token,
	}, nil
}

// AdminLogin authenticates a moderator against the configured credentials
func (s *AuthFlowImpl) AdminLogin(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	if req.Username != s.adminConfig.Username || s.adminConfig.PasswordHash == "" {
		return nil, NewBusinessError("LOGIN_FAILED", "Incorrect credentials", ErrIncorrectCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminConfig.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Incorrect credentials", ErrIncorrectCredentials)
	}

	token, err := s.tokens.GenerateAdminToken(req.Username)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue token", err)
	}

	return &dto.AdminLoginResponse{
		Message: "Login successful",
		Token:   token,
	}, nil
}

// SetUserBanned sets or clears a creator's banned flag. Banned users cannot
// submit or request payouts; their existing submissions are untouched.
func (s *AuthFlowImpl) SetUserBanned(ctx context.Context, req *dto.BanUserRequest, metadata *ClientMetadata) (*dto.BanUserResponse, error) {
	user, err := s.userRepo.ByAccountID(ctx, req.AccountID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	if err := s.userRepo.SetBanned(ctx, user.ID, req.Banned); err != nil {
		return nil, NewBusinessError("USER_UPDATE_FAILED", "Failed to update ban flag", err)
	}

	action := "user_unbanned"
	if req.Banned {
		action = "user_banned"
	}
	msg := fmt.Sprintf("Ban flag set to %t for %s", req.Banned, user.AccountID)
	_ = writeAuditLog(ctx, s.auditRepo, &user.ID, action, msg, true, nil, metadata)

	return &dto.BanUserResponse{
		Message: "Ban flag updated",
		Banned:  req.Banned,
	}, nil
}
