// Package response writes the uniform JSON envelope shared by every endpoint:
// {"success": bool, "message"?: string, "error"?: {"code", "message"}, ...payload}.
package response

import (
	"directory-service/internal/apperror"
	"directory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorBody is the error member of a failed envelope
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK writes a successful envelope. payload keys are merged at the top level.
func OK(c echo.Context, status int, message string, payload echo.Map) error {
	body := echo.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(status, body)
}

// Error writes a failed envelope for err. Internal detail is logged, never returned.
func Error(c echo.Context, err error) error {
	appErr := apperror.From(err)
	status := apperror.Status(appErr)

	log := logger.FromContext(c)
	if status >= 500 {
		log.Error("Request failed",
			zap.String("code", appErr.Code),
			zap.Error(err))
	} else {
		log.Debug("Request rejected",
			zap.String("code", appErr.Code),
			zap.String("reason", appErr.Message))
	}

	return c.JSON(status, echo.Map{
		"success": false,
		"error":   ErrorBody{Code: appErr.Code, Message: appErr.Message},
	})
}
