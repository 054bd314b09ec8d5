package handler

import (
	"net/http"

	"directory-service/internal/response"
	"directory-service/internal/service"
	"directory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves the public authentication endpoints
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RequestOTP handles POST /api/auth/request-otp
func (h *AuthHandler) RequestOTP(c echo.Context) error {
	var req struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
	}
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse OTP request", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}

	minutes, err := h.auth.RequestOTP(c.Request().Context(), req.Email, req.Purpose)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "OTP sent to email", echo.Map{
		"expires_in_minutes": minutes,
	})
}

// SignUp handles POST /api/auth/sign-up
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req service.SignUpInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse sign-up request", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}

	result, err := h.auth.SignUp(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusCreated, "Account created successfully", echo.Map{
		"member_id":  result.Member.ID,
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"member":     result.Member,
	})
}

// SignIn handles POST /api/auth/sign-in
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req service.SignInInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse sign-in request", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}

	result, err := h.auth.SignIn(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "Signed in successfully", echo.Map{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"member":     result.Member,
	})
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req service.ResetPasswordInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse reset request", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req); err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "Password reset successfully", nil)
}
