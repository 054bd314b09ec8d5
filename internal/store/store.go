package store

import (
	"context"
	"errors"
	"time"

	"directory-service/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no record
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique index
	ErrDuplicate = errors.New("duplicate record")
	// ErrOTPUsed is returned when a code was consumed by a concurrent caller
	ErrOTPUsed = errors.New("otp already used")
)

// Query is a search term plus an offset window
type Query struct {
	Search string
	Offset int
	Limit  int
}

// MemberStore persists members
type MemberStore interface {
	CreateMember(ctx context.Context, member *model.Member) error
	GetMemberByID(ctx context.Context, id uint) (*model.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*model.Member, error)
	SetMemberStatus(ctx context.Context, id uint, status string) error
	SetMemberRole(ctx context.Context, id uint, role string) error
	// ResetMemberPassword consumes the code and replaces the password atomically.
	// It returns ErrOTPUsed when the code is already used and changes nothing.
	ResetMemberPassword(ctx context.Context, otpID, memberID uint, passwordHash string) error
	SetMemberLastLogin(ctx context.Context, id uint, at time.Time) error
	ListMembersByOrganization(ctx context.Context, organizationID uint, offset, limit int) ([]model.Member, int64, error)
	CountMembersByOrganization(ctx context.Context, organizationID uint) (int64, error)
}

// OrganizationStore persists organizations
type OrganizationStore interface {
	CreateOrganization(ctx context.Context, org *model.Organization) error
	GetOrganization(ctx context.Context, id uint) (*model.Organization, error)
	// FindOrganizationByDomain returns the organization whose allow-list contains domain.
	FindOrganizationByDomain(ctx context.Context, domain string) (*model.Organization, error)
	// ListOrganizations returns newest first, with member counts, and the total match count.
	ListOrganizations(ctx context.Context, q Query) ([]model.OrganizationSummary, int64, error)
	UpdateOrganization(ctx context.Context, org *model.Organization) error
	DeleteOrganization(ctx context.Context, id uint) error
}

// OTPStore persists hashed one-time codes
type OTPStore interface {
	CreateOTP(ctx context.Context, otp *model.OTP) error
	// FindUsableOTP returns the most recently issued unused, unexpired record matching all arguments.
	FindUsableOTP(ctx context.Context, email, codeHash, purpose string, now time.Time) (*model.OTP, error)
	// MarkOTPUsed flips used from false to true and reports whether this call did it.
	MarkOTPUsed(ctx context.Context, id uint) (bool, error)
	CountOTPsSince(ctx context.Context, email, purpose string, since time.Time) (int64, error)
}

// SettingStore persists keyed settings
type SettingStore interface {
	GetSetting(ctx context.Context, key string) (*model.Setting, error)
	PutSetting(ctx context.Context, key, value string) error
}

// SupplierStore persists the supplier catalog
type SupplierStore interface {
	ListSuppliers(ctx context.Context, q Query) ([]model.Supplier, int64, error)
	GetSupplier(ctx context.Context, id uint) (*model.Supplier, error)
	CreateSupplier(ctx context.Context, supplier *model.Supplier) error
	UpdateSupplier(ctx context.Context, supplier *model.Supplier) error
	DeleteSupplier(ctx context.Context, id uint) error
	AddIngredient(ctx context.Context, supplierID uint, ingredient *model.Ingredient) error
	// ReplaceIngredient overwrites the ingredient's fields and claims.
	ReplaceIngredient(ctx context.Context, supplierID uint, ingredient *model.Ingredient) error
	DeleteIngredient(ctx context.Context, supplierID, ingredientID uint) error
}

// Store groups every store the service needs
type Store interface {
	MemberStore
	OrganizationStore
	OTPStore
	SettingStore
	SupplierStore
}
