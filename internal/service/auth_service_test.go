package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"directory-service/internal/apperror"
	"directory-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRequestOTPRateLimitsFourthCallInWindow(t *testing.T) {
	h := newHarness(t)
	h.organization(t, "Acme", "acme.com")

	for i := 0; i < 3; i++ {
		minutes, err := h.auth.RequestOTP(h.ctx, "jane@acme.com", model.PurposeEmailConfirmation)
		require.NoError(t, err, "call %d", i+1)
		require.Equal(t, 15, minutes)
		h.clock.Advance(5 * time.Second)
	}

	_, err := h.auth.RequestOTP(h.ctx, "Jane@Acme.com", model.PurposeEmailConfirmation)
	require.ErrorIs(t, err, apperror.RateLimited)
	require.Len(t, h.notifier.sent, 3)

	h.clock.Advance(time.Minute)
	_, err = h.auth.RequestOTP(h.ctx, "jane@acme.com", model.PurposeEmailConfirmation)
	require.NoError(t, err)
}

func TestRequestOTPValidatesInput(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		email, purpose string
	}{
		{"", model.PurposeEmailConfirmation},
		{"jane@acme.com", ""},
		{"not-an-email", model.PurposeEmailConfirmation},
		{"jane@acme.com", "login"},
	}
	for _, tc := range cases {
		_, err := h.auth.RequestOTP(h.ctx, tc.email, tc.purpose)
		require.Equal(t, apperror.KindValidation, apperror.From(err).Kind, "%+v", tc)
	}
}

func TestRequestOTPEligibility(t *testing.T) {
	h := newHarness(t)
	h.organization(t, "Acme", "acme.com")

	_, err := h.auth.RequestOTP(h.ctx, "jane@other.com", model.PurposeEmailConfirmation)
	require.ErrorIs(t, err, apperror.InvalidEmailDomain)

	_, err = h.auth.RequestOTP(h.ctx, "jane@acme.com", model.PurposePasswordReset)
	require.ErrorIs(t, err, apperror.MemberNotFound)
	require.Empty(t, h.notifier.sent)
}

func TestRequestOTPDeliveryFailureKeepsRecord(t *testing.T) {
	h := newHarness(t)
	h.organization(t, "Acme", "acme.com")
	h.notifier.err = errors.New("smtp timeout")

	_, err := h.auth.RequestOTP(h.ctx, "jane@acme.com", model.PurposeEmailConfirmation)
	require.ErrorIs(t, err, apperror.DeliveryFailed)
	require.Equal(t, 500, apperror.Status(err))

	n, err := h.store.CountOTPsSince(h.ctx, "jane@acme.com", model.PurposeEmailConfirmation, h.clock.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestSignUpEndToEnd(t *testing.T) {
	h := newHarness(t)
	acme := h.organization(t, "Acme", "acme.com")
	h.seedOTP(t, "a@acme.com", "482913", model.PurposeEmailConfirmation)

	result, err := h.auth.SignUp(h.ctx, SignUpInput{Email: "a@acme.com", Password: "Secret123", OTP: "482913"})
	require.NoError(t, err)
	require.NotZero(t, result.Member.ID)
	require.Equal(t, model.StatusActive, result.Member.Status)
	require.True(t, result.Member.EmailConfirmed)
	require.Equal(t, acme.ID, *result.Member.OrganizationID)

	claims, err := h.tokens.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, result.Member.ID, claims.MemberID)
	assert.Equal(t, "a@acme.com", claims.Subject)

	stored, err := h.store.GetMemberByEmail(h.ctx, "a@acme.com")
	require.NoError(t, err)
	require.True(t, h.hasher.Verify("Secret123", stored.Password))

	// the code is spent
	_, err = h.auth.SignUp(h.ctx, SignUpInput{Email: "a@acme.com", Password: "Secret123", OTP: "482913"})
	require.ErrorIs(t, err, apperror.InvalidOTP)
}

func TestSignUpDuplicateEmailKeepsCode(t *testing.T) {
	h := newHarness(t)
	acme := h.organization(t, "Acme", "acme.com")
	h.member(t, "a@acme.com", "Existing1", &acme.ID, model.StatusActive, true)
	h.seedOTP(t, "a@acme.com", "111222", model.PurposeEmailConfirmation)

	_, err := h.auth.SignUp(h.ctx, SignUpInput{Email: "a@acme.com", Password: "Secret123", OTP: "111222"})
	require.ErrorIs(t, err, apperror.EmailTaken)
	require.Equal(t, 409, apperror.Status(err))

	_, err = h.engine.Validate(h.ctx, "a@acme.com", "111222", model.PurposeEmailConfirmation)
	require.NoError(t, err)
}

func TestSignUpRejectsWrongPurposeAndDomain(t *testing.T) {
	h := newHarness(t)
	h.organization(t, "Acme", "acme.com")

	h.seedOTP(t, "a@acme.com", "123123", model.PurposePasswordReset)
	_, err := h.auth.SignUp(h.ctx, SignUpInput{Email: "a@acme.com", Password: "Secret123", OTP: "123123"})
	require.ErrorIs(t, err, apperror.InvalidOTP)

	h.seedOTP(t, "a@other.com", "123123", model.PurposeEmailConfirmation)
	_, err = h.auth.SignUp(h.ctx, SignUpInput{Email: "a@other.com", Password: "Secret123", OTP: "123123"})
	require.ErrorIs(t, err, apperror.InvalidEmailDomain)

	_, err = h.auth.SignUp(h.ctx, SignUpInput{Email: "a@acme.com", Password: "Secret123"})
	require.Equal(t, apperror.KindValidation, apperror.From(err).Kind)
}

func TestSignInDoesNotRevealWhichPartIsWrong(t *testing.T) {
	h := newHarness(t)
	acme := h.organization(t, "Acme", "acme.com")
	h.member(t, "a@acme.com", "Secret123", &acme.ID, model.StatusActive, true)

	_, wrongPassword := h.auth.SignIn(h.ctx, SignInInput{Email: "a@acme.com", Password: "Secret124"})
	_, unknownEmail := h.auth.SignIn(h.ctx, SignInInput{Email: "b@acme.com", Password: "Secret123"})

	require.ErrorIs(t, wrongPassword, apperror.InvalidCredentials)
	require.ErrorIs(t, unknownEmail, apperror.InvalidCredentials)
	require.Equal(t, apperror.From(wrongPassword).Message, apperror.From(unknownEmail).Message)
	require.Equal(t, apperror.Status(wrongPassword), apperror.Status(unknownEmail))
	require.Equal(t, 401, apperror.Status(unknownEmail))
}

func TestSignInChecksStatusAfterPassword(t *testing.T) {
	h := newHarness(t)
	h.member(t, "inactive@acme.com", "Secret123", nil, model.StatusInactive, true)
	h.member(t, "pending@acme.com", "Secret123", nil, model.StatusActive, false)

	_, err := h.auth.SignIn(h.ctx, SignInInput{Email: "inactive@acme.com", Password: "wrong"})
	require.ErrorIs(t, err, apperror.InvalidCredentials)

	_, err = h.auth.SignIn(h.ctx, SignInInput{Email: "inactive@acme.com", Password: "Secret123"})
	require.ErrorIs(t, err, apperror.MemberInactive)

	_, err = h.auth.SignIn(h.ctx, SignInInput{Email: "pending@acme.com", Password: "Secret123"})
	require.ErrorIs(t, err, apperror.EmailNotConfirmed)
}

func TestSignInTokenExpiresAfterConfiguredHours(t *testing.T) {
	h := newHarness(t)
	h.member(t, "a@acme.com", "Secret123", nil, model.StatusActive, true)

	result, err := h.auth.SignIn(h.ctx, SignInInput{Email: " A@acme.com", Password: "Secret123"})
	require.NoError(t, err)
	require.NotNil(t, result.Member.LastLogin)
	require.Equal(t, h.clock.Now(), *result.Member.LastLogin)

	stored, err := h.store.GetMemberByEmail(h.ctx, "a@acme.com")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)

	h.clock.Advance(24 * time.Hour)
	_, err = h.tokens.ValidateToken(result.Token)
	require.NoError(t, err)

	h.clock.Advance(time.Second)
	_, err = h.tokens.ValidateToken(result.Token)
	require.Error(t, err)
}

func TestResetPasswordFlow(t *testing.T) {
	h := newHarness(t)
	h.member(t, "a@acme.com", "OldSecret1", nil, model.StatusActive, true)

	_, err := h.auth.RequestOTP(h.ctx, "a@acme.com", model.PurposePasswordReset)
	require.NoError(t, err)
	sent := h.notifier.last(t)
	require.Equal(t, model.PurposePasswordReset, sent.purpose)

	// a confirmation code can't reset a password
	h.seedOTP(t, "a@acme.com", "999999", model.PurposeEmailConfirmation)
	err = h.auth.ResetPassword(h.ctx, ResetPasswordInput{Email: "a@acme.com", OTP: "999999", NewPassword: "NewSecret1"})
	require.ErrorIs(t, err, apperror.InvalidOTP)

	err = h.auth.ResetPassword(h.ctx, ResetPasswordInput{Email: "a@acme.com", OTP: sent.code, NewPassword: "NewSecret1"})
	require.NoError(t, err)

	_, err = h.auth.SignIn(h.ctx, SignInInput{Email: "a@acme.com", Password: "OldSecret1"})
	require.ErrorIs(t, err, apperror.InvalidCredentials)
	_, err = h.auth.SignIn(h.ctx, SignInInput{Email: "a@acme.com", Password: "NewSecret1"})
	require.NoError(t, err)

	err = h.auth.ResetPassword(h.ctx, ResetPasswordInput{Email: "a@acme.com", OTP: sent.code, NewPassword: "Another1"})
	require.ErrorIs(t, err, apperror.InvalidOTP)
}

func TestResetPasswordForMissingMember(t *testing.T) {
	h := newHarness(t)
	h.seedOTP(t, "ghost@acme.com", "424242", model.PurposePasswordReset)

	err := h.auth.ResetPassword(h.ctx, ResetPasswordInput{Email: "ghost@acme.com", OTP: "424242", NewPassword: "NewSecret1"})
	require.ErrorIs(t, err, apperror.MemberNotFound)
	require.Equal(t, 404, apperror.Status(err))
}

func TestResetPasswordConcurrentSameCodeHasOneWinner(t *testing.T) {
	h := newHarness(t)
	m := h.member(t, "a@acme.com", "OldSecret1", nil, model.StatusActive, true)
	h.seedOTP(t, "a@acme.com", "135790", model.PurposePasswordReset)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = h.auth.ResetPassword(h.ctx, ResetPasswordInput{
				Email:       "a@acme.com",
				OTP:         "135790",
				NewPassword: fmt.Sprintf("Candidate%d", i),
			})
		}(i)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "only one reset may succeed")
			winner = i
			continue
		}
		require.ErrorIs(t, err, apperror.InvalidOTP)
	}
	require.NotEqual(t, -1, winner)

	stored, err := h.store.GetMemberByID(h.ctx, m.ID)
	require.NoError(t, err)
	for i := 0; i < attempts; i++ {
		assert.Equal(t, i == winner, h.hasher.Verify(fmt.Sprintf("Candidate%d", i), stored.Password), "candidate %d", i)
	}
}

func TestAuthServiceBuildsUsableDecoyHash(t *testing.T) {
	h := newHarness(t)

	cost, err := bcrypt.Cost([]byte(h.auth.decoyHash))
	require.NoError(t, err, "unknown-email sign-in must pay for a real bcrypt compare")
	require.Equal(t, bcrypt.MinCost, cost)
	require.True(t, h.hasher.Verify("decoy-password", h.auth.decoyHash))
}
