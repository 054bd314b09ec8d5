package service

import (
	"context"
	"errors"
	"strings"

	"directory-service/internal/apperror"
	"directory-service/internal/model"
	"directory-service/internal/store"
	"directory-service/prometheus"
)

const (
	defaultOrganizationLimit = 50
	maxOrganizationLimit     = 200
)

// OrganizationInput creates an organization
type OrganizationInput struct {
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	AllowedDomains []string           `json:"allowed_domains"`
	AppsAndTools   model.AppsAndTools `json:"apps_and_tools"`
}

// AppsAndToolsPatch toggles individual capabilities
type AppsAndToolsPatch struct {
	LeadLogic     *bool `json:"leadlogic"`
	Signals       *bool `json:"signals"`
	Skutrition    *bool `json:"skutrition"`
	InternalTools *bool `json:"internal_tools"`
}

// OrganizationPatch is a partial organization update; nil fields are left alone
type OrganizationPatch struct {
	Name           *string            `json:"name"`
	Description    *string            `json:"description"`
	AllowedDomains *[]string          `json:"allowed_domains"`
	AppsAndTools   *AppsAndToolsPatch `json:"apps_and_tools"`
}

// OrganizationPage is one page of the organization listing
type OrganizationPage struct {
	Organizations []model.OrganizationSummary `json:"organizations"`
	Pagination    Pagination                  `json:"pagination"`
}

// MemberPage is one page of an organization's members
type MemberPage struct {
	Members    []model.MemberView `json:"members"`
	Pagination Pagination         `json:"pagination"`
}

// OrganizationService manages tenants
type OrganizationService struct {
	orgs    store.OrganizationStore
	members store.MemberStore
}

// NewOrganizationService creates an OrganizationService
func NewOrganizationService(orgs store.OrganizationStore, members store.MemberStore) *OrganizationService {
	return &OrganizationService{orgs: orgs, members: members}
}

// List searches organizations by name, description and allowed domains, newest first.
func (s *OrganizationService) List(ctx context.Context, search string, page, limit int) (*OrganizationPage, error) {
	page, limit = normalizePage(page, limit, defaultOrganizationLimit, maxOrganizationLimit)

	rows, total, err := s.orgs.ListOrganizations(ctx, store.Query{
		Search: strings.TrimSpace(search),
		Offset: offset(page, limit),
		Limit:  limit,
	})
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	if rows == nil {
		rows = []model.OrganizationSummary{}
	}
	return &OrganizationPage{Organizations: rows, Pagination: newPagination(page, limit, total)}, nil
}

// Create validates and stores a new organization
func (s *OrganizationService) Create(ctx context.Context, in OrganizationInput) (*model.Organization, error) {
	organization, err := model.NewOrganization(in.Name, in.Description, in.AllowedDomains, in.AppsAndTools)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := s.orgs.CreateOrganization(ctx, organization); err != nil {
		return nil, apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("organization", "create")
	return organization, nil
}

// Get returns a single organization
func (s *OrganizationService) Get(ctx context.Context, id uint) (*model.Organization, error) {
	organization, err := s.orgs.GetOrganization(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Organization")
	}
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return organization, nil
}

// Update applies a partial update
func (s *OrganizationService) Update(ctx context.Context, id uint, patch OrganizationPatch) (*model.Organization, error) {
	organization, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		organization.Name = name
	}
	if patch.Description != nil {
		organization.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.AllowedDomains != nil {
		organization.AllowedDomains = model.NormalizeDomains(*patch.AllowedDomains)
	}
	if apps := patch.AppsAndTools; apps != nil {
		setFlag(&organization.AppsAndTools.LeadLogic, apps.LeadLogic)
		setFlag(&organization.AppsAndTools.Signals, apps.Signals)
		setFlag(&organization.AppsAndTools.Skutrition, apps.Skutrition)
		setFlag(&organization.AppsAndTools.InternalTools, apps.InternalTools)
	}

	if err := s.orgs.UpdateOrganization(ctx, organization); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("Organization")
		}
		return nil, apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("organization", "update")
	return organization, nil
}

func setFlag(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Delete removes an organization that has no members
func (s *OrganizationService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.members.CountMembersByOrganization(ctx, id)
	if err != nil {
		return apperror.Unexpected(err)
	}
	if count > 0 {
		return apperror.Conflict("Organization still has members")
	}

	if err := s.orgs.DeleteOrganization(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("Organization")
		}
		return apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("organization", "delete")
	return nil
}

// Members lists an organization's members, newest first
func (s *OrganizationService) Members(ctx context.Context, id uint, page, limit int) (*MemberPage, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit, defaultOrganizationLimit, maxOrganizationLimit)

	members, total, err := s.members.ListMembersByOrganization(ctx, id, offset(page, limit), limit)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}

	views := make([]model.MemberView, 0, len(members))
	for i := range members {
		views = append(views, members[i].View())
	}
	return &MemberPage{Members: views, Pagination: newPagination(page, limit, total)}, nil
}
