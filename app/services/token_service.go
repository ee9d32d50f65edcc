package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clipforge/clipforge/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenService handles JWT token generation and validation
type TokenService interface {
	GenerateUserToken(userID uint) (string, error)
	ValidateUserToken(token string) (*TokenClaims, error)
	GenerateAdminToken(username string) (string, error)
	ValidateAdminToken(token string) (*AdminTokenClaims, error)
}

// TokenClaims represents the claims in a creator JWT
type TokenClaims struct {
	UserID    uint      `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenID   string    `json:"jti"`
}

// AdminTokenClaims represents claims for admin JWTs
type AdminTokenClaims struct {
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenID   string    `json:"jti"`
}

// TokenServiceImpl implements TokenService with a symmetric key
type TokenServiceImpl struct {
	accessTokenTTL time.Duration
	secretKey      []byte
	issuer         string
	audience       string
}

// NewTokenService creates a new token service
func NewTokenService(accessTokenTTL time.Duration, issuer, audience, secretKey string) (TokenService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}

	return &TokenServiceImpl{
		accessTokenTTL: accessTokenTTL,
		secretKey:      []byte(secretKey),
		issuer:         issuer,
		audience:       audience,
	}, nil
}

// GenerateUserToken issues a creator access token
func (s *TokenServiceImpl) GenerateUserToken(userID uint) (string, error) {
	now := utils.UTCNow()

	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    "user",
		"iat":     now.Unix(),
		"exp":     now.Add(s.accessTokenTTL).Unix(),
		"iss":     s.issuer,
		"aud":     s.audience,
		"jti":     uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateUserToken parses and validates a creator token
func (s *TokenServiceImpl) ValidateUserToken(tokenString string) (*TokenClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if role, _ := claims["role"].(string); role != "user" {
		return nil, ErrTokenInvalid
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	return &TokenClaims{
		UserID:    uint(userID),
		IssuedAt:  unixClaim(claims, "iat"),
		ExpiresAt: unixClaim(claims, "exp"),
		TokenID:   stringClaim(claims, "jti"),
	}, nil
}

// GenerateAdminToken issues a moderator access token
func (s *TokenServiceImpl) GenerateAdminToken(username string) (string, error) {
	now := utils.UTCNow()

	claims := jwt.MapClaims{
		"username": username,
		"role":     "admin",
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTokenTTL).Unix(),
		"iss":      s.issuer,
		"aud":      s.audience,
		"jti":      uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateAdminToken parses and validates a moderator token
func (s *TokenServiceImpl) ValidateAdminToken(tokenString string) (*AdminTokenClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if role, _ := claims["role"].(string); role != "admin" {
		return nil, ErrTokenInvalid
	}

	username := stringClaim(claims, "username")
	if username == "" {
		return nil, ErrTokenInvalid
	}

	return &AdminTokenClaims{
		Username:  username,
		IssuedAt:  unixClaim(claims, "iat"),
		ExpiresAt: unixClaim(claims, "exp"),
		TokenID:   stringClaim(claims, "jti"),
	}, nil
}

func (s *TokenServiceImpl) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if strings.Contains(err.Error(), "expired") {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func unixClaim(claims jwt.MapClaims, key string) time.Time {
	if v, ok := claims[key].(float64); ok {
		return time.Unix(int64(v), 0).UTC()
	}
	return time.Time{}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
