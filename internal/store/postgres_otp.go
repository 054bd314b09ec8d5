package store

import (
	"context"
	"time"

	"directory-service/internal/model"
	"directory-service/prometheus"
)

func (s *PostgresStore) CreateOTP(ctx context.Context, otp *model.OTP) error {
	defer prometheus.TrackDBOperation("otp_create")(time.Now())
	return translate("create otp", s.db.WithContext(ctx).Create(otp).Error)
}

func (s *PostgresStore) FindUsableOTP(ctx context.Context, email, codeHash, purpose string, now time.Time) (*model.OTP, error) {
	defer prometheus.TrackDBOperation("otp_find")(time.Now())
	var otp model.OTP
	err := s.db.WithContext(ctx).
		Where("email = ? AND code_hash = ? AND purpose = ? AND used = ? AND expires_at > ?",
			email, codeHash, purpose, false, now).
		Order("created_at DESC").Order("id DESC").
		First(&otp).Error
	if err != nil {
		return nil, translate("find otp", err)
	}
	return &otp, nil
}

func (s *PostgresStore) MarkOTPUsed(ctx context.Context, id uint) (bool, error) {
	defer prometheus.TrackDBOperation("otp_mark_used")(time.Now())
	res := s.db.WithContext(ctx).Model(&model.OTP{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if res.Error != nil {
		return false, translate("mark otp used", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *PostgresStore) CountOTPsSince(ctx context.Context, email, purpose string, since time.Time) (int64, error) {
	defer prometheus.TrackDBOperation("otp_count")(time.Now())
	var count int64
	err := s.db.WithContext(ctx).Model(&model.OTP{}).
		Where("email = ? AND purpose = ? AND created_at > ?", email, purpose, since).
		Count(&count).Error
	return count, translate("count otps", err)
}
