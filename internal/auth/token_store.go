package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"berich/internal/cache"
)

const (
	refreshTokenKeyPrefix = "berich:refresh_token:"
	revokedTokenKeyPrefix = "berich:revoked_access_token:"
)

// ErrRefreshTokenNotFound is returned when a refresh token was never stored, expired or was revoked.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID uint, email string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID uint, email string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	RevokeAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore keeps refresh tokens and revoked access token IDs in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

type refreshTokenRecord struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, email string, ttl time.Duration) error {
	payload, err := json.Marshal(refreshTokenRecord{UserID: userID, Email: email})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken retrieves refresh token data from Redis.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, string, error) {
	data, err := s.cache.Get(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil || data == nil {
		return 0, "", ErrRefreshTokenNotFound
	}

	var rec refreshTokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, "", fmt.Errorf("unmarshal token data: %w", err)
	}
	if rec.UserID == 0 || rec.Email == "" {
		return 0, "", ErrRefreshTokenNotFound
	}
	return rec.UserID, rec.Email, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}

// RevokeAccessToken marks an access token as revoked until it would have expired anyway.
func (s *TokenStore) RevokeAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsAccessTokenRevoked checks if an access token was revoked. Cache errors count as not revoked.
func (s *TokenStore) IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedTokenKeyPrefix+tokenID)
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}
