package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{InvalidOTP, http.StatusBadRequest},
		{InvalidCredentials, http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{MemberNotFound, http.StatusNotFound},
		{EmailTaken, http.StatusConflict},
		{RateLimited, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
		{DeliveryFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, Status(tc.err), tc.err.Error())
	}
}

func TestWrappedSentinelsStillMatch(t *testing.T) {
	err := fmt.Errorf("sign in: %w", InvalidCredentials.Wrap(errors.New("record not found")))

	require.ErrorIs(t, err, InvalidCredentials)
	require.Equal(t, http.StatusUnauthorized, Status(err))

	appErr := From(err)
	require.Equal(t, CodeInvalidCredentials, appErr.Code)
	require.Equal(t, "Email or password incorrect", appErr.Message)
}

func TestUnexpectedHidesInternals(t *testing.T) {
	appErr := From(errors.New("pq: connection refused"))
	require.Equal(t, CodeInternal, appErr.Code)
	require.NotContains(t, appErr.Message, "pq")
}
