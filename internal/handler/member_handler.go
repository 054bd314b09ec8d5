package handler

import (
	"net/http"

	"directory-service/internal/apperror"
	"directory-service/internal/middleware"
	"directory-service/internal/response"
	"directory-service/internal/service"
	"directory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MemberHandler serves member administration and self-service reads
type MemberHandler struct {
	members *service.MemberService
}

// NewMemberHandler creates a MemberHandler
func NewMemberHandler(members *service.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

func currentMemberID(c echo.Context) (uint, error) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return 0, apperror.Unauthorized("Authentication required")
	}
	return claims.MemberID, nil
}

// Me handles GET /api/members/me
func (h *MemberHandler) Me(c echo.Context) error {
	id, err := currentMemberID(c)
	if err != nil {
		return response.Error(c, err)
	}
	member, err := h.members.Get(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "", echo.Map{"member": member})
}

// MyAccess handles GET /api/members/me/access
func (h *MemberHandler) MyAccess(c echo.Context) error {
	id, err := currentMemberID(c)
	if err != nil {
		return response.Error(c, err)
	}
	return h.access(c, id)
}

// Access handles GET /api/members/:id/access
func (h *MemberHandler) Access(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	return h.access(c, id)
}

func (h *MemberHandler) access(c echo.Context, id uint) error {
	access, err := h.members.Access(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "", echo.Map{"access": access})
}

// Update handles PATCH /api/members/:id. Status is required unless only role is sent.
func (h *MemberHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	var req struct {
		Status string `json:"status"`
		Role   string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse member update", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}

	ctx := c.Request().Context()
	if req.Status != "" || req.Role == "" {
		if err := h.members.UpdateStatus(ctx, id, req.Status); err != nil {
			return response.Error(c, err)
		}
	}
	if req.Role != "" {
		if err := h.members.UpdateRole(ctx, id, req.Role); err != nil {
			return response.Error(c, err)
		}
	}
	logger.FromContext(c).Info("Member updated",
		zap.Uint("target_member_id", id),
		zap.String("status", req.Status),
		zap.String("role", req.Role))
	message := "Member status updated successfully"
	if req.Role != "" {
		message = "Member updated successfully"
	}
	return response.OK(c, http.StatusOK, message, nil)
}

// RequestPasswordReset handles POST /api/members/:id/reset-password and its legacy /resetPassword path
func (h *MemberHandler) RequestPasswordReset(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.members.RequestPasswordReset(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "OTP sent to member's email for password reset", nil)
}
