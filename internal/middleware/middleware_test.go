package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"directory-service/pkg/config"
	"directory-service/pkg/jwtutil"
	"directory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type staticSecret string

func (s staticSecret) VerifySecret(ctx context.Context, secret string) (bool, error) {
	return secret == string(s), nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

type envelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Role string `json:"role"`
}

func newTokens() (*jwtutil.JWTUtil, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "k", ExpirationHours: 24}, jwtutil.WithClock(clock.Now)), clock
}

func mint(t *testing.T, tokens *jwtutil.JWTUtil, role string) string {
	t.Helper()
	token, _, err := tokens.GenerateToken(jwtutil.Subject{MemberID: 7, Email: "a@acme.com", Role: role})
	require.NoError(t, err)
	return token
}

func serve(t *testing.T, mw echo.MiddlewareFunc, headers map[string]string) (int, envelope) {
	t.Helper()
	e := echo.New()
	e.GET("/guarded", func(c echo.Context) error {
		claims, ok := ClaimsFromContext(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, echo.Map{"success": true, "role": claims.Role})
	}, mw)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestAdminGateOrder(t *testing.T) {
	tokens, _ := newTokens()
	gate := AdminGate(staticSecret("s3cret"), tokens, true)
	admin := "Bearer " + mint(t, tokens, "admin")

	code, body := serve(t, gate, map[string]string{"Authorization": admin})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "Admin secret is missing", body.Error.Message)

	code, body = serve(t, gate, map[string]string{AdminSecretHeader: "nope", "Authorization": admin})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "Admin secret is invalid", body.Error.Message)

	code, body = serve(t, gate, map[string]string{AdminSecretHeader: "s3cret"})
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "UNAUTHORIZED", body.Error.Code)

	code, _ = serve(t, gate, map[string]string{AdminSecretHeader: "s3cret", "Authorization": "Token abc"})
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = serve(t, gate, map[string]string{AdminSecretHeader: "s3cret", "Authorization": "Bearer not.a.jwt"})
	require.Equal(t, http.StatusUnauthorized, code)

	code, body = serve(t, gate, map[string]string{AdminSecretHeader: "s3cret", "Authorization": "Bearer " + mint(t, tokens, "member")})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "Admin role required", body.Error.Message)

	code, body = serve(t, gate, map[string]string{AdminSecretHeader: "s3cret", "Authorization": admin})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "admin", body.Role)
}

func TestAdminGateWithoutRoleEnforcement(t *testing.T) {
	tokens, _ := newTokens()
	gate := AdminGate(staticSecret("s3cret"), tokens, false)

	code, body := serve(t, gate, map[string]string{AdminSecretHeader: "s3cret", "Authorization": "Bearer " + mint(t, tokens, "member")})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "member", body.Role)
}

func TestTokenAcceptedUntilExpiry(t *testing.T) {
	tokens, clock := newTokens()
	auth := MemberAuth(tokens)
	header := map[string]string{"Authorization": "Bearer " + mint(t, tokens, "member")}

	clock.t = clock.t.Add(24 * time.Hour)
	code, _ := serve(t, auth, header)
	require.Equal(t, http.StatusOK, code)

	clock.t = clock.t.Add(time.Second)
	code, body := serve(t, auth, header)
	require.Equal(t, http.StatusUnauthorized, code)
	require.False(t, body.Success)
}

func TestRequestIDPropagatesOrAssigns(t *testing.T) {
	e := echo.New()
	e.Use(RequestID)
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, rec.Header().Get(logger.RequestIDKey))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(logger.RequestIDKey, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(logger.RequestIDKey))
}

func TestRateLimiterPerClient(t *testing.T) {
	limiter := NewRateLimiter(10) // burst of 1
	e := echo.New()
	e.Use(limiter.Middleware())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	require.Equal(t, http.StatusNoContent, call("10.0.0.2"))
}

func TestNilRateLimiterPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(0)
	e := echo.New()
	e.Use(limiter.Middleware())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}
