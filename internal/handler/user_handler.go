package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"berich/internal/service"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// GetMe godoc
// @Summary Get the authenticated user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.UserSummary
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
