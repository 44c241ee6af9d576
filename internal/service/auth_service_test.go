package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"berich/internal/auth"
	apperrors "berich/internal/errors"
	"berich/internal/kakao"
	"berich/internal/model"
	"berich/internal/repository"
)

// MockKakaoClient is a mock implementation of SocialIdentityClient.
type MockKakaoClient struct {
	mock.Mock
}

func (m *MockKakaoClient) FetchProfile(ctx context.Context, accessToken string) (*kakao.Profile, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kakao.Profile), args.Error(1)
}

func (m *MockKakaoClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, email string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, email, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, string, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uint), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) RevokeAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

type testEnv struct {
	store  repository.Store
	kakao  *MockKakaoClient
	tokens *MockTokenStore
	jwt    *auth.JWTService
	svc    AuthService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.SocialConnection{}))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  repository.NewStore(setupTestDB(t)),
		kakao:  new(MockKakaoClient),
		tokens: new(MockTokenStore),
		jwt:    auth.NewJWTService("test-secret", time.Minute, time.Hour),
	}
	env.tokens.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything, time.Hour).Return(nil).Maybe()
	env.svc = NewAuthService(env.store, auth.NewBcryptHasher(4), env.jwt, env.tokens, env.kakao, nil)
	return env
}

func assertKind(t *testing.T, err error, want *apperrors.AppError) {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, want.Kind, appErr.Kind)
}

func TestAuthService_SignUpLocal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.SignUp(ctx, SignUpInput{Name: "Kim", Email: "Kim@X.com ", Password: "pass1234"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), result.UserID)
	assert.Equal(t, "Kim", result.Name)
	assert.Equal(t, "kim@x.com", result.Email)
	assert.False(t, result.BudgetSet)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	claims, err := env.jwt.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "kim@x.com", claims.Subject)
	assert.Equal(t, model.RoleUser, claims.Role)

	user, err := env.store.Users().FindByID(ctx, result.UserID)
	require.NoError(t, err)
	require.True(t, user.HasPassword())
	assert.NotEqual(t, "pass1234", *user.PasswordHash)
	assert.Empty(t, user.SocialConnections)
}

func TestAuthService_SignUpRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SignUp(ctx, SignUpInput{Name: "Kim", Email: "kim@x.com", Password: "pass1234"})
	require.NoError(t, err)

	_, err = env.svc.SignUp(ctx, SignUpInput{Name: "Other", Email: "KIM@x.com", Password: "other"})
	assertKind(t, err, apperrors.ErrEmailConflict)

	// The conflict wins over any other invalid field.
	_, err = env.svc.SignUp(ctx, SignUpInput{Name: " ", Email: "kim@x.com"})
	assertKind(t, err, apperrors.ErrEmailConflict)

	_, err = env.svc.SignUp(ctx, SignUpInput{Name: "", Email: "new@x.com", Password: "pass1234"})
	assertKind(t, err, apperrors.ErrInvalidArgument)
}

func TestAuthService_SignUpValidation(t *testing.T) {
	tests := []struct {
		name  string
		input SignUpInput
		want  *apperrors.AppError
	}{
		{"unknown provider", SignUpInput{Name: "Lee", Email: "lee@x.com", ProviderType: "GOOGLE", ProviderID: "1"}, apperrors.ErrInvalidProviderType},
		{"non numeric kakao id", SignUpInput{Name: "Lee", Email: "lee@x.com", ProviderType: "KAKAO", ProviderID: "abc"}, apperrors.ErrInvalidArgument},
		{"provider id without type", SignUpInput{Name: "Lee", Email: "lee@x.com", ProviderID: "1"}, apperrors.ErrInvalidArgument},
		{"local without password", SignUpInput{Name: "Lee", Email: "lee@x.com"}, apperrors.ErrInvalidArgument},
		{"missing email", SignUpInput{Name: "Lee", Password: "pass"}, apperrors.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.svc.SignUp(context.Background(), tt.input)
			assertKind(t, err, tt.want)

			exists, err := env.store.Users().ExistsByEmail(context.Background(), "lee@x.com")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestAuthService_SocialSignUpThenKakaoLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.kakao.On("FetchProfile", mock.Anything, "kakao-token").
		Return(&kakao.Profile{ID: "12345", Email: "lee@x.com", Raw: []byte(`{"id":12345}`)}, nil)

	first, err := env.svc.KakaoLoginOrRegister(ctx, "kakao-token")
	require.NoError(t, err)
	require.Nil(t, first.Login)
	require.NotNil(t, first.SignupRequired)
	assert.Equal(t, "KAKAO", first.SignupRequired.ProviderType)
	assert.Equal(t, "12345", first.SignupRequired.ProviderID)
	assert.Equal(t, "lee@x.com", first.SignupRequired.Email)

	signedUp, err := env.svc.SignUp(ctx, SignUpInput{Name: "Lee", Email: "lee@x.com", ProviderType: "kakao", ProviderID: "12345"})
	require.NoError(t, err)

	user, err := env.store.Users().FindByID(ctx, signedUp.UserID)
	require.NoError(t, err)
	assert.False(t, user.HasPassword())
	require.Len(t, user.SocialConnections, 1)
	assert.Equal(t, model.ProviderKakao, user.SocialConnections[0].Provider)

	second, err := env.svc.KakaoLoginOrRegister(ctx, "kakao-token")
	require.NoError(t, err)
	require.Nil(t, second.SignupRequired)
	require.NotNil(t, second.Login)
	assert.Equal(t, signedUp.UserID, second.Login.UserID)
	assert.Equal(t, "Lee", second.Login.Name)

	// Local login is not possible for a social-only account.
	_, err = env.svc.Login(ctx, "lee@x.com", "anything")
	assertKind(t, err, apperrors.ErrUnauthorized)

	env.kakao.AssertExpectations(t)
}

func TestAuthService_SocialSignUpRejectsLinkedIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SignUp(ctx, SignUpInput{Name: "Lee", Email: "lee@x.com", ProviderType: "KAKAO", ProviderID: "12345"})
	require.NoError(t, err)

	_, err = env.svc.SignUp(ctx, SignUpInput{Name: "Park", Email: "park@x.com", ProviderType: "KAKAO", ProviderID: "12345"})
	assertKind(t, err, apperrors.ErrSocialAlreadyLinked)

	exists, err := env.store.Users().ExistsByEmail(ctx, "park@x.com")
	require.NoError(t, err)
	assert.False(t, exists, "failed sign up must not leave a user behind")
}

func TestAuthService_KakaoLoginEmailConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SignUp(ctx, SignUpInput{Name: "Kim", Email: "kim@x.com", Password: "pass1234"})
	require.NoError(t, err)

	env.kakao.On("FetchProfile", mock.Anything, "kakao-token").
		Return(&kakao.Profile{ID: "999", Email: "KIM@x.com"}, nil)

	_, err = env.svc.KakaoLoginOrRegister(ctx, "kakao-token")
	assertKind(t, err, apperrors.ErrEmailConflict)

	_, err = env.store.SocialConnections().FindByProviderAndProviderID(ctx, model.ProviderKakao, "999")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAuthService_KakaoLoginWithoutEmailConsent(t *testing.T) {
	env := newTestEnv(t)
	env.kakao.On("FetchProfile", mock.Anything, "kakao-token").Return(&kakao.Profile{ID: "77"}, nil)

	result, err := env.svc.KakaoLoginOrRegister(context.Background(), "kakao-token")
	require.NoError(t, err)
	require.NotNil(t, result.SignupRequired)
	assert.Empty(t, result.SignupRequired.Email)
}

func TestAuthService_KakaoLoginProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.kakao.On("FetchProfile", mock.Anything, "bad-token").Return(nil, kakao.ErrRequestFailed)

	_, err := env.svc.KakaoLoginOrRegister(context.Background(), "bad-token")
	assertKind(t, err, apperrors.ErrSocialAPIFailure)
	assert.ErrorIs(t, err, kakao.ErrRequestFailed)

	_, err = env.svc.KakaoLoginOrRegister(context.Background(), "  ")
	assertKind(t, err, apperrors.ErrInvalidArgument)
}

func TestAuthService_KakaoExchangeCode(t *testing.T) {
	env := newTestEnv(t)
	env.kakao.On("ExchangeCode", mock.Anything, "code").Return("kakao-access", nil)
	env.kakao.On("ExchangeCode", mock.Anything, "bad").Return("", kakao.ErrInvalidResponse)

	token, err := env.svc.KakaoExchangeCode(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "kakao-access", token)

	_, err = env.svc.KakaoExchangeCode(context.Background(), "bad")
	assertKind(t, err, apperrors.ErrSocialAPIFailure)
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SignUp(ctx, SignUpInput{Name: "Kim", Email: "kim@x.com", Password: "pass1234"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		want     *apperrors.AppError
	}{
		{"correct credentials", "kim@x.com", "pass1234", nil},
		{"email case ignored", " KIM@x.com", "pass1234", nil},
		{"wrong password", "kim@x.com", "wrong", apperrors.ErrUnauthorized},
		{"unknown email", "nobody@x.com", "pass1234", apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.svc.Login(ctx, tt.email, tt.password)
			if tt.want != nil {
				assertKind(t, err, tt.want)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(1), result.UserID)
			assert.NotEmpty(t, result.AccessToken)
		})
	}
}

func TestAuthService_LoginReflectsBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signedUp, err := env.svc.SignUp(ctx, SignUpInput{Name: "Kim", Email: "kim@x.com", Password: "pass1234"})
	require.NoError(t, err)
	assert.False(t, signedUp.BudgetSet)

	settings := NewSettingService(env.store.Users(), nil)
	require.NoError(t, settings.SetBudget(ctx, signedUp.UserID, 500000))

	loggedIn, err := env.svc.Login(ctx, "kim@x.com", "pass1234")
	require.NoError(t, err)
	assert.True(t, loggedIn.BudgetSet)
}

func TestAuthService_RefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.SignUp(ctx, SignUpInput{Name: "Kim", Email: "kim@x.com", Password: "pass1234"})
	require.NoError(t, err)
	claims, err := env.jwt.ValidateRefreshToken(result.RefreshToken)
	require.NoError(t, err)

	env.tokens.On("GetRefreshToken", mock.Anything, claims.ID).Return(result.UserID, "kim@x.com", nil).Once()

	access, err := env.svc.RefreshToken(ctx, result.RefreshToken)
	require.NoError(t, err)
	accessClaims, err := env.jwt.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, result.UserID, accessClaims.UserID)

	env.tokens.On("GetRefreshToken", mock.Anything, claims.ID).Return(uint(0), "", auth.ErrRefreshTokenNotFound).Once()
	_, err = env.svc.RefreshToken(ctx, result.RefreshToken)
	assertKind(t, err, apperrors.ErrUnauthorized)

	_, err = env.svc.RefreshToken(ctx, result.AccessToken)
	assertKind(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.SignUp(ctx, SignUpInput{Name: "Kim", Email: "kim@x.com", Password: "pass1234"})
	require.NoError(t, err)
	refreshClaims, err := env.jwt.ValidateRefreshToken(result.RefreshToken)
	require.NoError(t, err)
	accessClaims, err := env.jwt.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)

	env.tokens.On("DeleteRefreshToken", mock.Anything, refreshClaims.ID).Return(nil).Once()
	env.tokens.On("RevokeAccessToken", mock.Anything, accessClaims.ID, mock.AnythingOfType("time.Duration")).Return(nil).Once()

	require.NoError(t, env.svc.Logout(ctx, result.RefreshToken, accessClaims))
	env.tokens.AssertExpectations(t)

	other := *accessClaims
	other.UserID = 99
	err = env.svc.Logout(ctx, result.RefreshToken, &other)
	assertKind(t, err, apperrors.ErrUnauthorized)
}
