package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"directory-service/internal/apperror"
	"directory-service/internal/model"
	"directory-service/internal/notifier"
	"directory-service/internal/org"
	"directory-service/internal/otp"
	"directory-service/internal/store"
	"directory-service/pkg/jwtutil"
	"directory-service/pkg/logger"
	"directory-service/pkg/password"
	"directory-service/prometheus"

	"go.uber.org/zap"
)

// bcrypt ignores input past 72 bytes
const maxPasswordBytes = 72

// AuthResult is returned by the flows that mint a session token
type AuthResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Member    model.MemberView `json:"member"`
}

// SignUpInput is the self-registration request
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// SignInInput is the password login request
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPasswordInput completes a password reset
type ResetPasswordInput struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// AuthService orchestrates OTP requests, sign-up, sign-in and password reset
type AuthService struct {
	members  store.MemberStore
	otps     *otp.Engine
	resolver *org.Resolver
	hasher   *password.Hasher
	tokens   *jwtutil.JWTUtil
	notifier notifier.Notifier
	now      func() time.Time

	// verified against when the email is unknown so both paths cost one bcrypt compare
	decoyHash string
}

// NewAuthService wires the auth flows
func NewAuthService(
	members store.MemberStore,
	otps *otp.Engine,
	resolver *org.Resolver,
	hasher *password.Hasher,
	tokens *jwtutil.JWTUtil,
	n notifier.Notifier,
) *AuthService {
	decoy, err := hasher.Hash("decoy-password")
	if err != nil {
		panic("auth service: hash decoy password: " + err.Error())
	}
	return &AuthService{
		members:   members,
		otps:      otps,
		resolver:  resolver,
		hasher:    hasher,
		tokens:    tokens,
		notifier:  n,
		now:       time.Now,
		decoyHash: decoy,
	}
}

// RequestOTP issues and delivers a code for purpose. It returns the code lifetime in minutes.
func (s *AuthService) RequestOTP(ctx context.Context, email, purpose string) (int, error) {
	if strings.TrimSpace(email) == "" || purpose == "" {
		return 0, apperror.Validation("Missing required fields: email, purpose")
	}
	if !model.ValidEmail(email) {
		return 0, apperror.Validation("Invalid email format")
	}
	if !model.ValidPurpose(purpose) {
		return 0, apperror.Validation("Invalid purpose")
	}
	email = model.NormalizeEmail(email)

	limited, err := s.otps.IsRateLimited(ctx, email, purpose)
	if err != nil {
		return 0, err
	}
	if limited {
		prometheus.RecordAuthError("otp_rate_limited")
		return 0, apperror.RateLimited
	}

	switch purpose {
	case model.PurposeEmailConfirmation:
		organization, err := s.resolver.Resolve(ctx, email)
		if err != nil {
			return 0, apperror.Unexpected(err)
		}
		if organization == nil {
			prometheus.RecordAuthError("email_domain_not_allowed")
			return 0, apperror.InvalidEmailDomain
		}
	case model.PurposePasswordReset:
		if _, err := s.members.GetMemberByEmail(ctx, email); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, apperror.MemberNotFound
			}
			return 0, apperror.Unexpected(err)
		}
	}

	if err := s.issueAndSend(ctx, email, purpose); err != nil {
		return 0, err
	}
	return int(s.otps.TTL() / time.Minute), nil
}

// issueAndSend persists a code and hands it to the notifier. A failed delivery keeps the record.
func (s *AuthService) issueAndSend(ctx context.Context, email, purpose string) error {
	record, code, err := s.otps.Issue(ctx, email, purpose)
	if err != nil {
		return err
	}
	if err := s.notifier.Send(ctx, email, code, purpose); err != nil {
		logger.FromStdContext(ctx).Error("OTP delivery failed",
			zap.Uint("otp_id", record.ID),
			zap.String("email", email),
			zap.String("purpose", purpose),
			zap.Error(err))
		return apperror.DeliveryFailed.Wrap(err)
	}
	return nil
}

// SignUp registers a member under the organization that allows the email's domain.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" || strings.TrimSpace(in.OTP) == "" {
		return nil, apperror.Validation("Missing required fields: email, password, otp")
	}
	if !model.ValidEmail(in.Email) {
		return nil, apperror.Validation("Invalid email format")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(in.Email)

	record, err := s.otps.Validate(ctx, email, in.OTP, model.PurposeEmailConfirmation)
	if err != nil {
		prometheus.RecordAuthError("invalid_otp")
		return nil, err
	}

	organization, err := s.resolver.Resolve(ctx, email)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	if organization == nil {
		prometheus.RecordAuthError("email_domain_not_allowed")
		return nil, apperror.InvalidEmailDomain
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}

	member, err := model.NewMember(email, hash, &organization.ID)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	member.EmailConfirmed = true
	member.Status = model.StatusActive
	member.Role = model.RoleMember

	if err := s.members.CreateMember(ctx, member); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			prometheus.RecordAuthError("email_taken")
			return nil, apperror.EmailTaken
		}
		return nil, apperror.Unexpected(err)
	}

	if err := s.otps.Consume(ctx, record); err != nil {
		return nil, err
	}

	result, err := s.issueToken(member)
	if err != nil {
		return nil, err
	}
	prometheus.RecordAuthSuccess("sign_up")
	logger.FromStdContext(ctx).Info("Member signed up",
		zap.Uint("member_id", member.ID),
		zap.Uint("organization_id", organization.ID))
	return result, nil
}

// SignIn authenticates with email and password. Unknown email and wrong password
// produce the same error.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperror.Validation("Missing required fields: email, password")
	}
	if !model.ValidEmail(in.Email) {
		return nil, apperror.Validation("Invalid email format")
	}

	member, err := s.members.GetMemberByEmail(ctx, model.NormalizeEmail(in.Email))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Unexpected(err)
	}
	if member == nil {
		s.hasher.Verify(in.Password, s.decoyHash)
		prometheus.RecordAuthError("unknown_email")
		return nil, apperror.InvalidCredentials
	}
	if !s.hasher.Verify(in.Password, member.Password) {
		prometheus.RecordAuthError("invalid_password")
		return nil, apperror.InvalidCredentials
	}

	if !member.CanSignIn() {
		if member.Status != model.StatusActive {
			prometheus.RecordAuthError("member_inactive")
			return nil, apperror.MemberInactive
		}
		prometheus.RecordAuthError("email_not_confirmed")
		return nil, apperror.EmailNotConfirmed
	}

	now := s.now()
	if err := s.members.SetMemberLastLogin(ctx, member.ID, now); err != nil {
		return nil, apperror.Unexpected(err)
	}
	member.LastLogin = &now

	result, err := s.issueToken(member)
	if err != nil {
		return nil, err
	}
	prometheus.RecordAuthSuccess("sign_in")
	return result, nil
}

// ResetPassword replaces the member's password using a password_reset code.
// Consuming the code and writing the password happen in one store call, so of
// two concurrent resets with the same code exactly one changes the password.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.OTP) == "" || in.NewPassword == "" {
		return apperror.Validation("Missing required fields: email, otp, new_password")
	}
	if err := checkPassword(in.NewPassword); err != nil {
		return err
	}
	email := model.NormalizeEmail(in.Email)

	record, err := s.otps.Validate(ctx, email, in.OTP, model.PurposePasswordReset)
	if err != nil {
		prometheus.RecordAuthError("invalid_otp")
		return err
	}

	member, err := s.members.GetMemberByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.MemberNotFound
	}
	if err != nil {
		return apperror.Unexpected(err)
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return apperror.Unexpected(err)
	}
	err = s.members.ResetMemberPassword(ctx, record.ID, member.ID, hash)
	switch {
	case errors.Is(err, store.ErrOTPUsed):
		prometheus.RecordAuthError("invalid_otp")
		return apperror.InvalidOTP
	case errors.Is(err, store.ErrNotFound):
		return apperror.MemberNotFound
	case err != nil:
		return apperror.Unexpected(err)
	}
	record.Used = true
	prometheus.RecordAuthSuccess("reset_password")
	return nil
}

func (s *AuthService) issueToken(member *model.Member) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(jwtutil.Subject{
		MemberID:       member.ID,
		OrganizationID: member.OrganizationID,
		Email:          member.Email,
		Role:           member.Role,
	})
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, Member: member.View()}, nil
}

func checkPassword(plain string) error {
	if len(plain) > maxPasswordBytes {
		return apperror.Validation("Password must be at most 72 bytes")
	}
	return nil
}
