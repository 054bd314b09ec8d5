package handler

import (
	"strconv"

	"directory-service/internal/apperror"

	"github.com/labstack/echo/v4"
)

var errInvalidBody = apperror.Validation("Invalid request body")

// parseID reads a positive numeric path parameter
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("Invalid " + name)
	}
	return uint(id), nil
}

// queryInt reads an integer query parameter, returning 0 when absent or malformed
func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return v
}
