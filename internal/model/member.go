package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Member statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// Member roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Member represents a person registered under an organization
type Member struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	OrganizationID *uint      `json:"organization_id" gorm:"index"`
	Email          string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password       string     `json:"-" gorm:"type:varchar(255);not null"`
	EmailConfirmed bool       `json:"email_confirmed" gorm:"default:false"`
	Status         string     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Role           string     `json:"role" gorm:"type:varchar(20);not null;default:'member'"`
	LastLogin      *time.Time `json:"last_login"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewMember builds a member record, normalizing the email and applying defaults.
func NewMember(email, passwordHash string, organizationID *uint) (*Member, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	if passwordHash == "" {
		return nil, errors.New("password hash is required")
	}
	return &Member{
		OrganizationID: organizationID,
		Email:          email,
		Password:       passwordHash,
		Status:         StatusPending,
		Role:           RoleMember,
	}, nil
}

// CanSignIn reports whether the member may authenticate.
func (m *Member) CanSignIn() bool {
	return m.Status == StatusActive && m.EmailConfirmed
}

// ValidStatus reports whether s is a known member status
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

// ValidRole reports whether r is a known member role
func ValidRole(r string) bool {
	return r == RoleMember || r == RoleAdmin
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email looks like local@domain.tld
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemberView is the public projection of a member; it never carries the password hash.
type MemberView struct {
	ID             uint       `json:"id"`
	Email          string     `json:"email"`
	OrganizationID *uint      `json:"organization_id"`
	Status         string     `json:"status"`
	EmailConfirmed bool       `json:"email_confirmed"`
	Role           string     `json:"role"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// View returns the sanitized projection of the member
func (m *Member) View() MemberView {
	role := m.Role
	if role == "" {
		role = RoleMember
	}
	return MemberView{
		ID:             m.ID,
		Email:          m.Email,
		OrganizationID: m.OrganizationID,
		Status:         m.Status,
		EmailConfirmed: m.EmailConfirmed,
		Role:           role,
		LastLogin:      m.LastLogin,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
