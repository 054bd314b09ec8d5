package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"directory-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails signature, algorithm or expiry checks
var ErrInvalidToken = errors.New("invalid or expired token")

// MemberClaims represents the session token claims for an authenticated member
type MemberClaims struct {
	MemberID       uint   `json:"member_id"`
	OrganizationID *uint  `json:"organization_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

// Subject is the identity the token was issued for
type Subject struct {
	MemberID       uint
	OrganizationID *uint
	Email          string
	Role           string
}

// JWTUtil issues and validates HS256 session tokens
type JWTUtil struct {
	config *config.JWTConfig
	now    func() time.Time
}

// Option customizes a JWTUtil
type Option func(*JWTUtil)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(j *JWTUtil) { j.now = now }
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(cfg *config.JWTConfig, opts ...Option) *JWTUtil {
	j := &JWTUtil{config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// TTL is the lifetime of newly issued tokens
func (j *JWTUtil) TTL() time.Duration {
	return time.Duration(j.config.ExpirationHours) * time.Hour
}

// GenerateToken mints a signed token for the subject
func (j *JWTUtil) GenerateToken(s Subject) (string, time.Time, error) {
	if j.config == nil || j.config.SigningKey == "" {
		return "", time.Time{}, errors.New("JWT configuration not provided")
	}

	role := s.Role
	if role == "" {
		role = "member"
	}

	issuedAt := j.now()
	expiresAt := issuedAt.Add(j.TTL())
	claims := MemberClaims{
		MemberID:       s.MemberID,
		OrganizationID: s.OrganizationID,
		Email:          s.Email,
		Role:           role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.config.SigningKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies the signature and expiry and returns the claims
func (j *JWTUtil) ValidateToken(tokenString string) (*MemberClaims, error) {
	if j.config == nil || j.config.SigningKey == "" {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&MemberClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*MemberClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
