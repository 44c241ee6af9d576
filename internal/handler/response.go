package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"berich/internal/auth"
	"berich/internal/errors"
)

// ContextKeyUser is where the JWT middleware stores the validated *auth.Claims.
const ContextKeyUser = "user"

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// toHTTPError converts a service error into an echo error carrying an ErrorResponse body.
// Internal failures are logged here and reported without their cause.
func toHTTPError(c echo.Context, err error) *echo.HTTPError {
	mapped := errors.MapErrorToHTTP(err)
	if errors.IsInternal(err) {
		fields := logrus.Fields{
			"method":     c.Request().Method,
			"path":       c.Path(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}
		if claims, ok := c.Get(ContextKeyUser).(*auth.Claims); ok {
			fields["user_id"] = claims.UserID
		}
		logrus.WithFields(fields).WithError(err).Error("request failed")
	}
	return echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse())
}

// bindAndValidate decodes the request body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  errors.ErrInvalidArgument.Code,
		})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  errors.ErrInvalidArgument.Code,
		})
	}
	return nil
}

// currentClaims returns the claims of the authenticated caller.
func currentClaims(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(ContextKeyUser).(*auth.Claims)
	if !ok || claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: errors.ErrUnauthorized.Message,
			Code:  errors.ErrUnauthorized.Code,
		})
	}
	return claims, nil
}
