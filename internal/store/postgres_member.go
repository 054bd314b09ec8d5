package store

import (
	"context"
	"errors"
	"time"

	"directory-service/internal/model"
	"directory-service/prometheus"

	"gorm.io/gorm"
)

func (s *PostgresStore) CreateMember(ctx context.Context, member *model.Member) error {
	defer prometheus.TrackDBOperation("member_create")(time.Now())
	return translate("create member", s.db.WithContext(ctx).Create(member).Error)
}

func (s *PostgresStore) GetMemberByID(ctx context.Context, id uint) (*model.Member, error) {
	defer prometheus.TrackDBOperation("member_get")(time.Now())
	var member model.Member
	if err := s.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, translate("get member", err)
	}
	return &member, nil
}

func (s *PostgresStore) GetMemberByEmail(ctx context.Context, email string) (*model.Member, error) {
	defer prometheus.TrackDBOperation("member_get_by_email")(time.Now())
	var member model.Member
	err := s.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).First(&member).Error
	if err != nil {
		return nil, translate("get member by email", err)
	}
	return &member, nil
}

func (s *PostgresStore) SetMemberStatus(ctx context.Context, id uint, status string) error {
	defer prometheus.TrackDBOperation("member_set_status")(time.Now())
	return s.updateMember(ctx, id, "status", status)
}

func (s *PostgresStore) SetMemberRole(ctx context.Context, id uint, role string) error {
	defer prometheus.TrackDBOperation("member_set_role")(time.Now())
	return s.updateMember(ctx, id, "role", role)
}

func (s *PostgresStore) ResetMemberPassword(ctx context.Context, otpID, memberID uint, passwordHash string) error {
	defer prometheus.TrackDBOperation("member_reset_password")(time.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.OTP{}).Where("id = ? AND used = ?", otpID, false).Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOTPUsed
		}

		res = tx.Model(&model.Member{}).Where("id = ?", memberID).Update("password", passwordHash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ErrOTPUsed) || errors.Is(err, ErrNotFound) {
		return err
	}
	return translate("reset member password", err)
}

func (s *PostgresStore) SetMemberLastLogin(ctx context.Context, id uint, at time.Time) error {
	defer prometheus.TrackDBOperation("member_set_last_login")(time.Now())
	return s.updateMember(ctx, id, "last_login", at)
}

func (s *PostgresStore) updateMember(ctx context.Context, id uint, column string, value interface{}) error {
	res := s.db.WithContext(ctx).Model(&model.Member{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate("update member "+column, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListMembersByOrganization(ctx context.Context, organizationID uint, offset, limit int) ([]model.Member, int64, error) {
	defer prometheus.TrackDBOperation("member_list")(time.Now())

	query := s.db.WithContext(ctx).Model(&model.Member{}).Where("organization_id = ?", organizationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count members", err)
	}

	var members []model.Member
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&members).Error
	if err != nil {
		return nil, 0, translate("list members", err)
	}
	return members, total, nil
}

func (s *PostgresStore) CountMembersByOrganization(ctx context.Context, organizationID uint) (int64, error) {
	defer prometheus.TrackDBOperation("member_count")(time.Now())
	var total int64
	err := s.db.WithContext(ctx).Model(&model.Member{}).Where("organization_id = ?", organizationID).Count(&total).Error
	return total, translate("count members", err)
}
