package service

import (
	"context"
	"errors"

	"directory-service/internal/apperror"
	"directory-service/internal/model"
	"directory-service/internal/otp"
	"directory-service/internal/store"
	"directory-service/prometheus"
)

// Access is the capability set a member inherits from its organization
type Access struct {
	OrganizationID *uint              `json:"organization_id"`
	AppsAndTools   model.AppsAndTools `json:"apps_and_tools"`
}

// MemberService covers member administration and self-service reads
type MemberService struct {
	members store.MemberStore
	orgs    store.OrganizationStore
	auth    *AuthService
	otps    *otp.Engine
}

// NewMemberService creates a MemberService. Reset codes are issued through auth.
func NewMemberService(members store.MemberStore, orgs store.OrganizationStore, otps *otp.Engine, auth *AuthService) *MemberService {
	return &MemberService{members: members, orgs: orgs, otps: otps, auth: auth}
}

// Get returns the member's public projection
func (s *MemberService) Get(ctx context.Context, id uint) (*model.MemberView, error) {
	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := member.View()
	return &view, nil
}

func (s *MemberService) load(ctx context.Context, id uint) (*model.Member, error) {
	member, err := s.members.GetMemberByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.MemberNotFound
	}
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return member, nil
}

// UpdateStatus sets the member's lifecycle status
func (s *MemberService) UpdateStatus(ctx context.Context, id uint, status string) error {
	if status == "" {
		return apperror.Validation("Status is required")
	}
	if !model.ValidStatus(status) {
		return apperror.Validation("Status must be one of active, inactive, pending")
	}

	err := s.members.SetMemberStatus(ctx, id, status)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.MemberNotFound
	}
	if err != nil {
		return apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("member", "update_status")
	return nil
}

// UpdateRole sets the member's role
func (s *MemberService) UpdateRole(ctx context.Context, id uint, role string) error {
	if !model.ValidRole(role) {
		return apperror.Validation("Role must be one of member, admin")
	}

	err := s.members.SetMemberRole(ctx, id, role)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.MemberNotFound
	}
	if err != nil {
		return apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("member", "update_role")
	return nil
}

// RequestPasswordReset issues a password_reset code to an existing member on an admin's behalf.
func (s *MemberService) RequestPasswordReset(ctx context.Context, id uint) error {
	member, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	limited, err := s.otps.IsRateLimited(ctx, member.Email, model.PurposePasswordReset)
	if err != nil {
		return err
	}
	if limited {
		return apperror.RateLimited
	}
	if !model.ValidEmail(member.Email) {
		return apperror.Validation("Invalid email format")
	}

	if err := s.auth.issueAndSend(ctx, member.Email, model.PurposePasswordReset); err != nil {
		return err
	}
	prometheus.RecordEntityOperation("member", "reset_password")
	return nil
}

// Access returns the apps and tools granted by the member's organization
func (s *MemberService) Access(ctx context.Context, id uint) (*Access, error) {
	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	access := &Access{OrganizationID: member.OrganizationID}
	if member.OrganizationID == nil {
		return access, nil
	}

	organization, err := s.orgs.GetOrganization(ctx, *member.OrganizationID)
	if errors.Is(err, store.ErrNotFound) {
		return access, nil
	}
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	access.AppsAndTools = organization.AppsAndTools
	return access, nil
}
