package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"berich/internal/service"
)

// SettingHandler handles per-user settings.
type SettingHandler struct {
	svc service.SettingService
}

// NewSettingHandler creates a setting handler.
func NewSettingHandler(svc service.SettingService) *SettingHandler {
	return &SettingHandler{svc: svc}
}

// BudgetRequest sets the monthly budget of the caller.
type BudgetRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

// SetBudget godoc
// @Summary Set the caller's budget
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetRequest true "Budget amount"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /settings/budget [post]
func (h *SettingHandler) SetBudget(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req BudgetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.svc.SetBudget(c.Request().Context(), claims.UserID, req.Amount); err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "budget updated"})
}
