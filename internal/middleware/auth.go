package middleware

import (
	"context"
	"strings"

	"directory-service/internal/apperror"
	"directory-service/internal/model"
	"directory-service/internal/response"
	"directory-service/pkg/jwtutil"
	"directory-service/pkg/logger"
	"directory-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminSecretHeader carries the admin shared secret
const AdminSecretHeader = "X-Admin-Secret"

const claimsKey = "claims"

// TokenValidator verifies session tokens
type TokenValidator interface {
	ValidateToken(token string) (*jwtutil.MemberClaims, error)
}

// SecretVerifier checks a presented admin secret against the stored one
type SecretVerifier interface {
	VerifySecret(ctx context.Context, secret string) (bool, error)
}

// ClaimsFromContext returns the claims stored by MemberAuth or AdminGate
func ClaimsFromContext(c echo.Context) (*jwtutil.MemberClaims, bool) {
	claims, ok := c.Get(claimsKey).(*jwtutil.MemberClaims)
	return claims, ok
}

// MemberAuth requires a valid bearer token
func MemberAuth(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := authenticate(c, tokens)
			if err != nil {
				return response.Error(c, err)
			}
			setClaims(c, claims)
			return next(c)
		}
	}
}

// AdminGate requires the admin shared secret and then a valid bearer token.
// With enforceRole the token must also carry the admin role.
func AdminGate(secrets SecretVerifier, tokens TokenValidator, enforceRole bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			secret := c.Request().Header.Get(AdminSecretHeader)
			if secret == "" {
				prometheus.RecordAdminGate("missing_secret")
				return response.Error(c, apperror.Forbidden("Admin secret is missing"))
			}

			ok, err := secrets.VerifySecret(c.Request().Context(), secret)
			if err != nil {
				return response.Error(c, err)
			}
			if !ok {
				log.Warn("Admin secret mismatch", zap.String("ip", c.RealIP()))
				prometheus.RecordAdminGate("invalid_secret")
				return response.Error(c, apperror.Forbidden("Admin secret is invalid"))
			}

			claims, err := authenticate(c, tokens)
			if err != nil {
				prometheus.RecordAdminGate("invalid_token")
				return response.Error(c, err)
			}

			if enforceRole && claims.Role != model.RoleAdmin {
				log.Warn("Admin route called without admin role",
					zap.Uint("member_id", claims.MemberID),
					zap.String("role", claims.Role))
				prometheus.RecordAdminGate("insufficient_role")
				return response.Error(c, apperror.Forbidden("Admin role required"))
			}

			prometheus.RecordAdminGate("allowed")
			setClaims(c, claims)
			return next(c)
		}
	}
}

func authenticate(c echo.Context, tokens TokenValidator) (*jwtutil.MemberClaims, error) {
	log := logger.FromContext(c)

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		prometheus.RecordAuthError("missing_token")
		return nil, apperror.Unauthorized("Missing authorization token")
	}

	token, ok := bearerToken(header)
	if !ok {
		prometheus.RecordAuthError("invalid_auth_format")
		return nil, apperror.Unauthorized("Invalid authorization format, expected Bearer token")
	}

	claims, err := tokens.ValidateToken(token)
	if err != nil {
		log.Debug("Invalid JWT token", zap.Error(err))
		prometheus.RecordAuthError("invalid_token")
		return nil, apperror.InvalidToken
	}
	return claims, nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func setClaims(c echo.Context, claims *jwtutil.MemberClaims) {
	c.Set(claimsKey, claims)
	logger.Set(c, logger.FromContext(c).With(zap.Uint("member_id", claims.MemberID)))
}
