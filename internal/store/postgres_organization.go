package store

import (
	"context"
	"time"

	"directory-service/internal/model"
	"directory-service/prometheus"

	"gorm.io/gorm"
)

const memberCountColumn = "(SELECT COUNT(*) FROM members WHERE members.organization_id = organizations.id) AS member_count"

func (s *PostgresStore) CreateOrganization(ctx context.Context, org *model.Organization) error {
	defer prometheus.TrackDBOperation("organization_create")(time.Now())
	return translate("create organization", s.db.WithContext(ctx).Create(org).Error)
}

func (s *PostgresStore) GetOrganization(ctx context.Context, id uint) (*model.Organization, error) {
	defer prometheus.TrackDBOperation("organization_get")(time.Now())
	var org model.Organization
	if err := s.db.WithContext(ctx).First(&org, id).Error; err != nil {
		return nil, translate("get organization", err)
	}
	return &org, nil
}

func (s *PostgresStore) FindOrganizationByDomain(ctx context.Context, domain string) (*model.Organization, error) {
	defer prometheus.TrackDBOperation("organization_find_by_domain")(time.Now())
	var org model.Organization
	err := s.db.WithContext(ctx).
		Where("? = ANY(allowed_domains)", domain).
		Order("id ASC").
		First(&org).Error
	if err != nil {
		return nil, translate("find organization by domain", err)
	}
	return &org, nil
}

func (s *PostgresStore) ListOrganizations(ctx context.Context, q Query) ([]model.OrganizationSummary, int64, error) {
	defer prometheus.TrackDBOperation("organization_list")(time.Now())

	filter := func(tx *gorm.DB) *gorm.DB {
		if q.Search == "" {
			return tx
		}
		pattern := containsPattern(q.Search)
		return tx.Where(
			"name ILIKE ? OR description ILIKE ? OR array_to_string(allowed_domains, ',') ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Organization{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, translate("count organizations", err)
	}

	var rows []model.OrganizationSummary
	err := s.db.WithContext(ctx).
		Model(&model.Organization{}).
		Scopes(filter).
		Select("organizations.*, " + memberCountColumn).
		Order("created_at DESC").Order("id DESC").
		Offset(q.Offset).Limit(q.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, translate("list organizations", err)
	}
	return rows, total, nil
}

func (s *PostgresStore) UpdateOrganization(ctx context.Context, org *model.Organization) error {
	defer prometheus.TrackDBOperation("organization_update")(time.Now())
	res := s.db.WithContext(ctx).Model(org).
		Select("name", "description", "allowed_domains",
			"app_leadlogic", "app_signals", "app_skutrition", "app_internal_tools", "updated_at").
		Updates(org)
	if res.Error != nil {
		return translate("update organization", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteOrganization(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("organization_delete")(time.Now())
	res := s.db.WithContext(ctx).Delete(&model.Organization{}, id)
	if res.Error != nil {
		return translate("delete organization", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
