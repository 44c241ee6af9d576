package router

import (
	stderrors "errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"berich/internal/auth"
	"berich/internal/config"
	"berich/internal/errors"
	"berich/internal/handler"
	"berich/internal/metrics"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth    *handler.AuthHandler
	Setting *handler.SettingHandler
	User    *handler.UserHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	h Handlers,
) {
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = NewValidator()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/kakao/login", h.Auth.KakaoLogin)
	api.GET("/auth/kakao/token", h.Auth.KakaoToken)
	api.POST("/auth/signup", h.Auth.SignUp)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	// Secured routes (require JWT authentication)
	secured := api.Group("", JWTMiddleware(jwtService, tokenStore))
	secured.POST("/auth/logout", h.Auth.Logout)
	secured.POST("/settings/budget", h.Setting.SetBudget)
	secured.GET("/users/me", h.User.GetMe)
}

// JWTMiddleware authenticates Bearer access tokens and rejects revoked ones. The parsed
// *auth.Claims are stored under handler.ContextKeyUser.
func JWTMiddleware(jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: handler.ContextKeyUser,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				return nil, err
			}
			revoked, err := tokenStore.IsAccessTokenRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return nil, err
			}
			if revoked {
				return nil, auth.ErrInvalidToken
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: errors.ErrUnauthorized.Message,
				Code:  errors.ErrUnauthorized.Code,
			})
		},
	})
}

// HTTPErrorHandler renders every error as an errors.ErrorResponse.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errors.ErrorResponse{Error: errors.ErrInternal.Message, Code: errors.ErrInternal.Code}

	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		status = he.Code
		switch msg := he.Message.(type) {
		case errors.ErrorResponse:
			body = msg
		case string:
			body = errors.ErrorResponse{Error: msg, Code: codeForStatus(status)}
		default:
			body = errors.ErrorResponse{Error: http.StatusText(status), Code: codeForStatus(status)}
		}
	} else {
		mapped := errors.MapErrorToHTTP(err)
		if errors.IsInternal(err) {
			logrus.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}
		status = mapped.StatusCode
		body = mapped.ToErrorResponse()
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		logrus.WithError(writeErr).Warn("failed to write error response")
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return errors.ErrInvalidArgument.Code
	case http.StatusUnauthorized:
		return errors.ErrUnauthorized.Code
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return errors.ErrInternal.Code
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logrus.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"ip":         v.RemoteIP,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("request")
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator builds the echo validator used for request DTOs.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
