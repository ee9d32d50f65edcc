package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, ttl time.Duration) TokenService {
	t.Helper()
	svc, err := NewTokenService(ttl, "clipforge", "clipforge-api", "test-secret-key-for-unit-tests")
	require.NoError(t, err)
	return svc
}

func TestTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Hour, "clipforge", "clipforge-api", "")
	assert.Error(t, err)
}

func TestUserTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	token, err := svc.GenerateUserToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateUserToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
}

func TestAdminTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	token, err := svc.GenerateAdminToken("moderator")
	require.NoError(t, err)

	claims, err := svc.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "moderator", claims.Username)
}

func TestTokenRoleSeparation(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	userToken, err := svc.GenerateUserToken(7)
	require.NoError(t, err)
	adminToken, err := svc.GenerateAdminToken("moderator")
	require.NoError(t, err)

	// A creator token must not pass the admin guard and vice versa
	_, err = svc.ValidateAdminToken(userToken)
	assert.Error(t, err)
	_, err = svc.ValidateUserToken(adminToken)
	assert.Error(t, err)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	other, err := NewTokenService(time.Hour, "clipforge", "clipforge-api", "a-different-secret")
	require.NoError(t, err)

	token, err := svc.GenerateUserToken(1)
	require.NoError(t, err)

	_, err = other.ValidateUserToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	token, err := svc.GenerateUserToken(1)
	require.NoError(t, err)

	_, err = svc.ValidateUserToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	_, err := svc.ValidateUserToken("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
