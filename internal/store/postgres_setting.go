package store

import (
	"context"
	"time"

	"directory-service/internal/model"
	"directory-service/prometheus"

	"gorm.io/gorm/clause"
)

func (s *PostgresStore) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	defer prometheus.TrackDBOperation("setting_get")(time.Now())
	var setting model.Setting
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		return nil, translate("get setting", err)
	}
	return &setting, nil
}

func (s *PostgresStore) PutSetting(ctx context.Context, key, value string) error {
	defer prometheus.TrackDBOperation("setting_put")(time.Now())
	setting := model.Setting{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	return translate("put setting", err)
}
