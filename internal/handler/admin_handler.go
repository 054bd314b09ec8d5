package handler

import (
	"net/http"

	"directory-service/internal/middleware"
	"directory-service/internal/response"
	"directory-service/internal/service"
	"directory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminHandler manages the admin shared secret
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler creates an AdminHandler
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// UpdateSecret handles POST /api/admin/secret. The current secret comes from the
// request body, falling back to the X-Admin-Secret header.
func (h *AdminHandler) UpdateSecret(c echo.Context) error {
	var req struct {
		CurrentSecret string `json:"current_secret"`
		NewSecret     string `json:"new_secret"`
	}
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse secret update", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}

	current := req.CurrentSecret
	if current == "" {
		current = c.Request().Header.Get(middleware.AdminSecretHeader)
	}

	if err := h.admin.RotateSecret(c.Request().Context(), current, req.NewSecret); err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "Admin secret updated successfully", nil)
}
