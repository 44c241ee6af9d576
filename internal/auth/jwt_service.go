package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenExpiry is used when no access token TTL is configured.
	DefaultAccessTokenExpiry = time.Hour
	// DefaultRefreshTokenExpiry is used when no refresh token TTL is configured.
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour

	issuer = "berich"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType is returned when a refresh token is presented as an access token or vice versa.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims represents JWT claims. Subject carries the account email.
type Claims struct {
	UserID    uint   `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Identity is the authenticated principal a token is issued for.
type Identity struct {
	UserID uint
	Email  string
	Role   string
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWT service with the given secret and token lifetimes.
// Non-positive lifetimes fall back to the defaults.
func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenExpiry
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenExpiry
	}
	return &JWTService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// RefreshTTL returns the lifetime of refresh tokens.
func (s *JWTService) RefreshTTL() time.Duration { return s.refreshTTL }

// GenerateAccessToken issues a signed access token for id.
func (s *JWTService) GenerateAccessToken(id Identity) (string, error) {
	_, token, err := s.sign(id, TokenTypeAccess, s.accessTTL)
	return token, err
}

// GenerateRefreshToken issues a refresh token. The token ID is returned separately for
// storage in Redis.
func (s *JWTService) GenerateRefreshToken(id Identity) (tokenID string, token string, err error) {
	return s.sign(id, TokenTypeRefresh, s.refreshTTL)
}

func (s *JWTService) sign(id Identity, tokenType string, ttl time.Duration) (string, string, error) {
	now := s.now()
	tokenID := uuid.New().String()
	claims := &Claims{
		UserID:    id.UserID,
		Email:     id.Email,
		Role:      id.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    issuer,
			Subject:   id.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return tokenID, token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken validates tokenString and requires it to be an access token.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validateType(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates tokenString and requires it to be a refresh token with an ID.
func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := s.validateType(tokenString, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) validateType(tokenString, tokenType string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
