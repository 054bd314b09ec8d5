package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"directory-service/internal/apperror"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, write func(c echo.Context) error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, write(c))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestOKMergesPayload(t *testing.T) {
	status, body := record(t, func(c echo.Context) error {
		return OK(c, http.StatusCreated, "Created", echo.Map{"id": 4})
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Created", body["message"])
	assert.EqualValues(t, 4, body["id"])

	_, body = record(t, func(c echo.Context) error { return OK(c, http.StatusOK, "", nil) })
	assert.NotContains(t, body, "message")
}

func TestErrorEnvelope(t *testing.T) {
	status, body := record(t, func(c echo.Context) error {
		return Error(c, apperror.Conflict("Supplier already exists"))
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, map[string]any{"code": "CONFLICT", "message": "Supplier already exists"}, body["error"])
}

func TestErrorHidesInternals(t *testing.T) {
	status, body := record(t, func(c echo.Context) error {
		return Error(c, errors.New("pq: connection reset by peer"))
	})
	assert.Equal(t, http.StatusInternalServerError, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "INTERNAL_ERROR", errBody["code"])
	assert.NotContains(t, errBody["message"], "pq:")
}
