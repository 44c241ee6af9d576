package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"berich/internal/auth"
	"berich/internal/cache"
	apperrors "berich/internal/errors"
	"berich/internal/kakao"
	"berich/internal/metrics"
	"berich/internal/model"
	"berich/internal/repository"
)

const pendingProfileTTL = 10 * time.Minute

var numericID = regexp.MustCompile(`^[0-9]+$`)

// SocialIdentityClient resolves provider access tokens into user profiles.
type SocialIdentityClient interface {
	FetchProfile(ctx context.Context, accessToken string) (*kakao.Profile, error)
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// LoginResult is returned after a successful authentication.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	UserID       uint   `json:"userId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	BudgetSet    bool   `json:"budgetSet"`
}

// SignupRequiredResult tells the client that a social identity has no local account yet.
type SignupRequiredResult struct {
	ProviderType string `json:"providerType"`
	ProviderID   string `json:"providerId"`
	Email        string `json:"email,omitempty"`
}

// KakaoLoginResult holds exactly one of Login or SignupRequired.
type KakaoLoginResult struct {
	Login          *LoginResult
	SignupRequired *SignupRequiredResult
}

// SignUpInput carries the sign up fields. ProviderType and ProviderID are either both set
// (social sign up) or both empty (local sign up).
type SignUpInput struct {
	Name         string
	Email        string
	Password     string
	ProviderType string
	ProviderID   string
}

// AuthService handles authentication operations.
type AuthService interface {
	KakaoLoginOrRegister(ctx context.Context, accessToken string) (*KakaoLoginResult, error)
	KakaoExchangeCode(ctx context.Context, code string) (string, error)
	SignUp(ctx context.Context, in SignUpInput) (*LoginResult, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string, current *auth.Claims) error
}

type authService struct {
	store      repository.Store
	hasher     auth.PasswordHasher
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	kakao      SocialIdentityClient
	cache      *cache.Client
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store repository.Store,
	hasher auth.PasswordHasher,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	kakaoClient SocialIdentityClient,
	cache *cache.Client,
) AuthService {
	return &authService{
		store:      store,
		hasher:     hasher,
		jwtService: jwtService,
		tokenStore: tokenStore,
		kakao:      kakaoClient,
		cache:      cache,
	}
}

// KakaoLoginOrRegister logs in the user linked to the Kakao identity behind accessToken, or
// reports that a sign up is required. It never creates or merges accounts.
func (s *authService) KakaoLoginOrRegister(ctx context.Context, accessToken string) (*KakaoLoginResult, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, apperrors.ErrInvalidArgument.WithMessage("accessToken is required")
	}

	profile, err := s.kakao.FetchProfile(ctx, accessToken)
	if err != nil {
		metrics.RecordAuth("kakao", "provider_error")
		return nil, apperrors.ErrSocialAPIFailure.Wrap(err)
	}
	if profile == nil || strings.TrimSpace(profile.ID) == "" {
		metrics.RecordAuth("kakao", "provider_error")
		return nil, apperrors.ErrSocialAPIFailure.Wrap(errors.New("profile without id"))
	}

	conn, err := s.store.SocialConnections().FindByProviderAndProviderID(ctx, model.ProviderKakao, profile.ID)
	switch {
	case err == nil:
		user, err := s.store.Users().FindByID(ctx, conn.UserID)
		if err != nil {
			return nil, fmt.Errorf("load linked user %d: %w", conn.UserID, err)
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "provider": model.ProviderKakao}).Info("existing user logged in with kakao")
		result, err := s.buildLoginResponse(ctx, user)
		if err != nil {
			return nil, err
		}
		metrics.RecordAuth("kakao", "login")
		return &KakaoLoginResult{Login: result}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		email := normalizeEmail(profile.Email)
		if email != "" {
			exists, err := s.store.Users().ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if exists {
				logrus.WithFields(logrus.Fields{"email": email, "provider_id": profile.ID}).Warn("kakao email already registered")
				metrics.RecordAuth("kakao", "email_conflict")
				return nil, apperrors.ErrEmailConflict
			}
		}

		s.rememberPendingProfile(ctx, model.ProviderKakao, profile)
		logrus.WithField("provider_id", profile.ID).Info("new kakao user, sign up required")
		metrics.RecordAuth("kakao", "signup_required")
		return &KakaoLoginResult{SignupRequired: &SignupRequiredResult{
			ProviderType: model.ProviderKakao.String(),
			ProviderID:   profile.ID,
			Email:        email,
		}}, nil

	default:
		return nil, fmt.Errorf("find social connection: %w", err)
	}
}

// KakaoExchangeCode trades an authorization code for a Kakao access token.
func (s *authService) KakaoExchangeCode(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", apperrors.ErrInvalidArgument.WithMessage("code is required")
	}
	token, err := s.kakao.ExchangeCode(ctx, code)
	if err != nil {
		return "", apperrors.ErrSocialAPIFailure.Wrap(err)
	}
	return token, nil
}

// SignUp registers a local or social account and logs it in.
func (s *authService) SignUp(ctx context.Context, in SignUpInput) (*LoginResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperrors.ErrInvalidArgument.WithMessage("email is required")
	}

	exists, err := s.store.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		logrus.WithField("email", email).Warn("sign up with already registered email")
		metrics.RecordAuth("signup", "email_conflict")
		return nil, apperrors.ErrEmailConflict
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.ErrInvalidArgument.WithMessage("name is required")
	}

	user := &model.User{Email: email, Name: name}
	var conn *model.SocialConnection

	providerType := strings.TrimSpace(in.ProviderType)
	providerID := strings.TrimSpace(in.ProviderID)
	switch {
	case providerType == "" && providerID == "":
		if strings.TrimSpace(in.Password) == "" {
			return nil, apperrors.ErrInvalidArgument.WithMessage("password is required")
		}
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = &hash

	case providerType != "" && providerID != "":
		conn, err = s.newSocialConnection(ctx, providerType, providerID)
		if err != nil {
			return nil, err
		}

	default:
		return nil, apperrors.ErrInvalidArgument.WithMessage("providerType and providerId must be supplied together")
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrEmailConflict
			}
			return fmt.Errorf("create user: %w", err)
		}
		if conn == nil {
			return nil
		}
		conn.UserID = user.ID
		if err := tx.SocialConnections().Create(ctx, conn); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrSocialAlreadyLinked
			}
			return fmt.Errorf("create social connection: %w", err)
		}
		user.SocialConnections = []model.SocialConnection{*conn}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if conn != nil {
		_ = s.cache.Delete(ctx, pendingProfileKey(conn.Provider, conn.ProviderID))
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "social": conn != nil}).Info("user signed up")
	metrics.RecordAuth("signup", "success")
	return s.buildLoginResponse(ctx, user)
}

func (s *authService) newSocialConnection(ctx context.Context, providerType, providerID string) (*model.SocialConnection, error) {
	provider, ok := model.ParseProviderType(providerType)
	if !ok {
		logrus.WithField("provider_type", providerType).Warn("unsupported provider type")
		return nil, apperrors.ErrInvalidProviderType
	}
	if provider == model.ProviderKakao && !numericID.MatchString(providerID) {
		return nil, apperrors.ErrInvalidArgument.WithMessage("kakao providerId must be numeric")
	}

	_, err := s.store.SocialConnections().FindByProviderAndProviderID(ctx, provider, providerID)
	if err == nil {
		logrus.WithFields(logrus.Fields{"provider": provider, "provider_id": providerID}).Warn("social account already linked")
		metrics.RecordAuth("signup", "social_already_linked")
		return nil, apperrors.ErrSocialAlreadyLinked
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find social connection: %w", err)
	}

	conn := &model.SocialConnection{Provider: provider, ProviderID: providerID}
	if raw, _ := s.cache.Get(ctx, pendingProfileKey(provider, providerID)); raw != nil {
		conn.Profile = raw
	}
	return conn, nil
}

// Login authenticates a local account by email and password.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordAuth("login", "not_found")
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !user.HasPassword() {
		metrics.RecordAuth("login", "unauthorized")
		return nil, apperrors.ErrUnauthorized.WithMessage("invalid email or password")
	}
	if err := s.hasher.Compare(*user.PasswordHash, password); err != nil {
		metrics.RecordAuth("login", "unauthorized")
		return nil, apperrors.ErrUnauthorized.WithMessage("invalid email or password")
	}

	metrics.RecordAuth("login", "success")
	return s.buildLoginResponse(ctx, user)
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrUnauthorized.WithMessage("invalid or expired refresh token")
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", apperrors.ErrUnauthorized.WithMessage("invalid or expired refresh token")
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return "", apperrors.ErrUnauthorized.WithMessage("invalid or expired refresh token")
	}

	accessToken, err := s.jwtService.GenerateAccessToken(auth.Identity{UserID: claims.UserID, Email: claims.Email, Role: model.RoleUser})
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates a refresh token and, when given, revokes the access token in use.
func (s *authService) Logout(ctx context.Context, refreshToken string, current *auth.Claims) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return apperrors.ErrUnauthorized.WithMessage("invalid or expired refresh token")
	}
	if current != nil && current.UserID != claims.UserID {
		return apperrors.ErrUnauthorized.WithMessage("refresh token belongs to another user")
	}

	if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if current != nil && current.ID != "" && current.ExpiresAt != nil {
		if err := s.tokenStore.RevokeAccessToken(ctx, current.ID, time.Until(current.ExpiresAt.Time)); err != nil {
			return fmt.Errorf("revoke access token: %w", err)
		}
	}
	return nil
}

// buildLoginResponse issues tokens for user and summarises the account.
func (s *authService) buildLoginResponse(ctx context.Context, user *model.User) (*LoginResult, error) {
	identity := auth.Identity{UserID: user.ID, Email: user.Email, Role: model.RoleUser}

	accessToken, err := s.jwtService.GenerateAccessToken(identity)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(identity)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Email, s.jwtService.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Name:         user.Name,
		Email:        user.Email,
		BudgetSet:    user.BudgetSet(),
	}, nil
}

// rememberPendingProfile keeps the raw provider profile until the matching sign up arrives.
func (s *authService) rememberPendingProfile(ctx context.Context, provider model.ProviderType, profile *kakao.Profile) {
	if len(profile.Raw) == 0 {
		return
	}
	_ = s.cache.Set(ctx, pendingProfileKey(provider, profile.ID), profile.Raw, pendingProfileTTL)
}

func pendingProfileKey(provider model.ProviderType, providerID string) string {
	return "berich:pending_profile:" + provider.String() + ":" + providerID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
