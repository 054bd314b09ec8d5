package store

import (
	"context"
	"testing"
	"time"

	"directory-service/internal/model"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreMemberEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateMember(ctx, &model.Member{Email: "a@acme.com", Password: "h"}))
	err := s.CreateMember(ctx, &model.Member{Email: " A@ACME.com ", Password: "h"})
	require.ErrorIs(t, err, ErrDuplicate)

	m, err := s.GetMemberByEmail(ctx, "A@acme.com")
	require.NoError(t, err)
	require.Equal(t, "a@acme.com", m.Email)

	_, err = s.GetMemberByEmail(ctx, "nobody@acme.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreFindUsableOTPPicksNewest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	older := &model.OTP{Email: "a@acme.com", CodeHash: "h", Purpose: model.PurposePasswordReset, ExpiresAt: base.Add(time.Hour), CreatedAt: base}
	newer := &model.OTP{Email: "a@acme.com", CodeHash: "h", Purpose: model.PurposePasswordReset, ExpiresAt: base.Add(time.Hour), CreatedAt: base.Add(time.Second)}
	require.NoError(t, s.CreateOTP(ctx, older))
	require.NoError(t, s.CreateOTP(ctx, newer))

	found, err := s.FindUsableOTP(ctx, "a@acme.com", "h", model.PurposePasswordReset, base.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, newer.ID, found.ID)

	_, err = s.FindUsableOTP(ctx, "a@acme.com", "h", model.PurposeEmailConfirmation, base.Add(time.Minute))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindUsableOTP(ctx, "a@acme.com", "h", model.PurposePasswordReset, base.Add(time.Hour))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreMarkOTPUsedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	otp := &model.OTP{Email: "a@acme.com", CodeHash: "h", Purpose: model.PurposeEmailConfirmation, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateOTP(ctx, otp))

	ok, err := s.MarkOTPUsed(ctx, otp.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.MarkOTPUsed(ctx, otp.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreCountOTPsSince(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateOTP(ctx, &model.OTP{
			Email: "a@acme.com", CodeHash: "h", Purpose: model.PurposeEmailConfirmation,
			ExpiresAt: base.Add(time.Hour), CreatedAt: base.Add(time.Duration(i) * 30 * time.Second),
		}))
	}

	n, err := s.CountOTPsSince(ctx, "a@acme.com", model.PurposeEmailConfirmation, base.Add(10*time.Second))
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestMemoryStoreListOrganizations(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	acme := &model.Organization{Name: "Acme", AllowedDomains: []string{"acme.com"}, CreatedAt: base}
	globex := &model.Organization{Name: "Globex", Description: "Widgets", AllowedDomains: []string{"globex.io"}, CreatedAt: base.Add(time.Hour)}
	require.NoError(t, s.CreateOrganization(ctx, acme))
	require.NoError(t, s.CreateOrganization(ctx, globex))
	require.NoError(t, s.CreateMember(ctx, &model.Member{Email: "a@acme.com", Password: "h", OrganizationID: &acme.ID}))

	rows, total, err := s.ListOrganizations(ctx, Query{Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, "Globex", rows[0].Name)
	require.EqualValues(t, 1, rows[1].MemberCount)

	rows, total, err = s.ListOrganizations(ctx, Query{Search: "ACME.C", Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, acme.ID, rows[0].ID)

	rows, total, err = s.ListOrganizations(ctx, Query{Offset: 5, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Empty(t, rows)
}

func TestMemoryStoreFindOrganizationByDomain(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateOrganization(ctx, &model.Organization{Name: "Acme", AllowedDomains: []string{"acme.com"}}))

	org, err := s.FindOrganizationByDomain(ctx, "acme.com")
	require.NoError(t, err)
	require.Equal(t, "Acme", org.Name)

	_, err = s.FindOrganizationByDomain(ctx, "sub.acme.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreIngredientLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	sup := &model.Supplier{Name: "Beta Foods"}
	require.NoError(t, s.CreateSupplier(ctx, sup))
	require.ErrorIs(t, s.CreateSupplier(ctx, &model.Supplier{Name: "Beta Foods"}), ErrDuplicate)

	ing := &model.Ingredient{IngredientName: "Oat fibre", Claims: []model.Claim{{Verbatim: "High fibre", Category: "nutrition"}}}
	require.NoError(t, s.AddIngredient(ctx, sup.ID, ing))
	require.NotZero(t, ing.ID)

	replacement := &model.Ingredient{ID: ing.ID, IngredientName: "Oat fibre 2", Claims: []model.Claim{{Verbatim: "Vegan", Category: "diet"}}}
	require.NoError(t, s.ReplaceIngredient(ctx, sup.ID, replacement))

	got, err := s.GetSupplier(ctx, sup.ID)
	require.NoError(t, err)
	require.Len(t, got.Ingredients, 1)
	require.Equal(t, "Oat fibre 2", got.Ingredients[0].IngredientName)
	require.Equal(t, []string{"diet"}, got.Categories())

	require.ErrorIs(t, s.DeleteIngredient(ctx, sup.ID, 9999), ErrNotFound)
	require.NoError(t, s.DeleteIngredient(ctx, sup.ID, ing.ID))

	got, err = s.GetSupplier(ctx, sup.ID)
	require.NoError(t, err)
	require.Empty(t, got.Ingredients)
}

func TestMemoryStoreResetMemberPasswordConsumesCodeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	m := &model.Member{Email: "a@acme.com", Password: "old"}
	require.NoError(t, s.CreateMember(ctx, m))
	code := &model.OTP{Email: "a@acme.com", CodeHash: "h", Purpose: model.PurposePasswordReset}
	require.NoError(t, s.CreateOTP(ctx, code))

	require.NoError(t, s.ResetMemberPassword(ctx, code.ID, m.ID, "first"))
	require.ErrorIs(t, s.ResetMemberPassword(ctx, code.ID, m.ID, "second"), ErrOTPUsed)

	got, err := s.GetMemberByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, "first", got.Password)

	fresh := &model.OTP{Email: "a@acme.com", CodeHash: "h2", Purpose: model.PurposePasswordReset}
	require.NoError(t, s.CreateOTP(ctx, fresh))
	require.ErrorIs(t, s.ResetMemberPassword(ctx, fresh.ID, 9999, "x"), ErrNotFound)

	ok, err := s.MarkOTPUsed(ctx, fresh.ID)
	require.NoError(t, err)
	require.True(t, ok, "a failed reset leaves the code unused")
}

func TestMemoryStoreSetMemberRole(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	m := &model.Member{Email: "a@acme.com", Password: "h", Role: model.RoleMember}
	require.NoError(t, s.CreateMember(ctx, m))
	require.NoError(t, s.SetMemberRole(ctx, m.ID, model.RoleAdmin))

	got, err := s.GetMemberByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, got.Role)
	require.ErrorIs(t, s.SetMemberRole(ctx, 9999, model.RoleAdmin), ErrNotFound)
}
