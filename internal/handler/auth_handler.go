package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"berich/internal/errors"
	"berich/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// KakaoLoginRequest carries the access token obtained by the client from Kakao.
type KakaoLoginRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// SignUpRequest represents a registration request. ProviderType and ProviderID are set for
// social sign up, Password for local sign up.
type SignUpRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=30"`
	Email        string `json:"email" validate:"required,email,max=50"`
	Password     string `json:"password" validate:"omitempty,min=4"`
	ProviderType string `json:"providerType,omitempty"`
	ProviderID   string `json:"providerId,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest represents a logout request.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AccessTokenResponse is returned by the refresh endpoint.
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// KakaoTokenResponse is returned by the code exchange endpoint.
type KakaoTokenResponse struct {
	KakaoAccessToken string `json:"kakaoAccessToken"`
}

// KakaoLogin godoc
// @Summary Log in with a Kakao access token
// @Description Returns a LoginResult for a linked Kakao identity, or a SignupRequiredResult otherwise.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body KakaoLoginRequest true "Kakao access token"
// @Success 200 {object} service.LoginResult
// @Success 200 {object} service.SignupRequiredResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/kakao/login [post]
func (h *AuthHandler) KakaoLogin(c echo.Context) error {
	var req KakaoLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.KakaoLoginOrRegister(c.Request().Context(), req.AccessToken)
	if err != nil {
		return toHTTPError(c, err)
	}
	if result.SignupRequired != nil {
		return c.JSON(http.StatusOK, result.SignupRequired)
	}
	return c.JSON(http.StatusOK, result.Login)
}

// KakaoToken godoc
// @Summary Exchange a Kakao authorization code for an access token
// @Tags auth
// @Produce json
// @Param code query string true "Authorization code"
// @Success 200 {object} KakaoTokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/kakao/token [get]
func (h *AuthHandler) KakaoToken(c echo.Context) error {
	token, err := h.authService.KakaoExchangeCode(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, KakaoTokenResponse{KakaoAccessToken: token})
}

// SignUp godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Registration data"
// @Success 201 {object} service.LoginResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.SignUp(c.Request().Context(), service.SignUpInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ProviderType: req.ProviderType,
		ProviderID:   req.ProviderID,
	})
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.LoginResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		// Unknown emails are indistinguishable from wrong passwords.
		if stderrors.Is(err, errors.ErrNotFound) {
			err = errors.ErrUnauthorized.WithMessage("invalid email or password")
		}
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Refresh godoc
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} AccessTokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	accessToken, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, AccessTokenResponse{AccessToken: accessToken})
}

// Logout godoc
// @Summary Logout user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogoutRequest true "Refresh token"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req LogoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken, claims); err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}
