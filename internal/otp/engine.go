package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"directory-service/internal/apperror"
	"directory-service/internal/model"
	"directory-service/internal/store"
	"directory-service/pkg/config"
	"directory-service/prometheus"
)

// Engine issues, validates and consumes one-time codes
type Engine struct {
	store  store.OTPStore
	config config.OTPConfig
	now    func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the engine's time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine bound to its store and configuration
func NewEngine(s store.OTPStore, cfg config.OTPConfig, opts ...Option) *Engine {
	e := &Engine{store: s, config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TTL is the lifetime of an issued code
func (e *Engine) TTL() time.Duration {
	return e.config.TTL
}

// GenerateCode returns a uniformly random numeric code of length digits, zero padded.
func GenerateCode(length int) (string, error) {
	if length <= 0 || length > 18 {
		return "", fmt.Errorf("invalid otp length %d", length)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}

// Hash returns the sha256 hex digest of a code
func Hash(code string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}

// Issue persists a new hashed code and returns the record plus the plaintext code.
// The plaintext is never stored.
func (e *Engine) Issue(ctx context.Context, email, purpose string) (*model.OTP, string, error) {
	if !model.ValidPurpose(purpose) {
		return nil, "", apperror.Validation("purpose must be email_confirmation or password_reset")
	}

	code, err := GenerateCode(e.config.Length)
	if err != nil {
		return nil, "", apperror.Unexpected(err)
	}

	now := e.now()
	record := &model.OTP{
		Email:     model.NormalizeEmail(email),
		CodeHash:  Hash(code),
		Purpose:   purpose,
		ExpiresAt: now.Add(e.config.TTL),
		CreatedAt: now,
	}
	if err := e.store.CreateOTP(ctx, record); err != nil {
		return nil, "", apperror.Unexpected(err)
	}

	prometheus.RecordOTPIssued(purpose)
	return record, code, nil
}

// Validate returns the most recently issued unused, unexpired record matching
// email, code and purpose. It does not consume the record.
func (e *Engine) Validate(ctx context.Context, email, code, purpose string) (*model.OTP, error) {
	email = model.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" || !model.ValidPurpose(purpose) {
		prometheus.RecordOTPValidation(purpose, false)
		return nil, apperror.InvalidOTP
	}

	record, err := e.store.FindUsableOTP(ctx, email, Hash(code), purpose, e.now())
	if errors.Is(err, store.ErrNotFound) {
		prometheus.RecordOTPValidation(purpose, false)
		return nil, apperror.InvalidOTP
	}
	if err != nil {
		return nil, apperror.Unexpected(err)
	}

	prometheus.RecordOTPValidation(purpose, true)
	return record, nil
}

// Consume marks record used. A record already consumed by someone else yields InvalidOTP.
func (e *Engine) Consume(ctx context.Context, record *model.OTP) error {
	ok, err := e.store.MarkOTPUsed(ctx, record.ID)
	if err != nil {
		return apperror.Unexpected(err)
	}
	if !ok {
		return apperror.InvalidOTP
	}
	record.Used = true
	return nil
}

// IsRateLimited reports whether email already reached the issuance limit for
// purpose within the trailing window.
func (e *Engine) IsRateLimited(ctx context.Context, email, purpose string) (bool, error) {
	since := e.now().Add(-e.config.RateWindow)
	count, err := e.store.CountOTPsSince(ctx, model.NormalizeEmail(email), purpose, since)
	if err != nil {
		return false, apperror.Unexpected(err)
	}
	if count >= int64(e.config.RateLimit) {
		prometheus.RecordOTPRateLimited(purpose)
		return true, nil
	}
	return false, nil
}
