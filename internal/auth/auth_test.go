package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"berich/internal/model"
)

func testIdentity() Identity {
	return Identity{UserID: 7, Email: "kim@x.com", Role: model.RoleUser}
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute, time.Hour)

	token, err := svc.GenerateAccessToken(testIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "kim@x.com", claims.Email)
	assert.Equal(t, "kim@x.com", claims.Subject)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 0, 0).GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 0, 0).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute, time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_TokenTypesAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute, time.Hour)

	access, err := svc.GenerateAccessToken(testIdentity())
	require.NoError(t, err)
	tokenID, refresh, err := svc.GenerateRefreshToken(testIdentity())
	require.NoError(t, err)
	assert.NotEmpty(t, tokenID)

	_, err = svc.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.ID)
}

func TestJWTService_DefaultTTLs(t *testing.T) {
	svc := NewJWTService("s", -1, 0)
	assert.Equal(t, DefaultRefreshTokenExpiry, svc.RefreshTTL())

	token, err := svc.GenerateAccessToken(testIdentity())
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, DefaultAccessTokenExpiry, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("pass1234")
	require.NoError(t, err)
	assert.NotEqual(t, "pass1234", hash)

	assert.NoError(t, h.Compare(hash, "pass1234"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)
	assert.ErrorIs(t, h.Compare("", "pass1234"), ErrPasswordMismatch)
}

func TestTokenStore_FailsSafeWithoutRedis(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore(nil)

	assert.NoError(t, store.StoreRefreshToken(ctx, "id", 1, "kim@x.com", time.Minute))

	_, _, err := store.GetRefreshToken(ctx, "id")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	assert.NoError(t, store.RevokeAccessToken(ctx, "id", time.Minute))
	revoked, err := store.IsAccessTokenRevoked(ctx, "id")
	assert.NoError(t, err)
	assert.False(t, revoked)
}
