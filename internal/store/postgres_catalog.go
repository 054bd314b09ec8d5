package store

import (
	"context"
	"time"

	"directory-service/internal/model"
	"directory-service/prometheus"

	"gorm.io/gorm"
)

func (s *PostgresStore) ListSuppliers(ctx context.Context, q Query) ([]model.Supplier, int64, error) {
	defer prometheus.TrackDBOperation("supplier_list")(time.Now())

	filter := func(tx *gorm.DB) *gorm.DB {
		if q.Search == "" {
			return tx
		}
		pattern := containsPattern(q.Search)
		return tx.Where("name ILIKE ? OR domain ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Supplier{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, translate("count suppliers", err)
	}

	var suppliers []model.Supplier
	err := s.db.WithContext(ctx).
		Scopes(filter).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Ingredients.Claims", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Order("id ASC").
		Offset(q.Offset).Limit(q.Limit).
		Find(&suppliers).Error
	if err != nil {
		return nil, 0, translate("list suppliers", err)
	}
	return suppliers, total, nil
}

func (s *PostgresStore) GetSupplier(ctx context.Context, id uint) (*model.Supplier, error) {
	defer prometheus.TrackDBOperation("supplier_get")(time.Now())
	return s.loadSupplier(s.db.WithContext(ctx), id)
}

func (s *PostgresStore) loadSupplier(tx *gorm.DB, id uint) (*model.Supplier, error) {
	var supplier model.Supplier
	err := tx.
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Ingredients.Claims", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		First(&supplier, id).Error
	if err != nil {
		return nil, translate("get supplier", err)
	}
	return &supplier, nil
}

func (s *PostgresStore) CreateSupplier(ctx context.Context, supplier *model.Supplier) error {
	defer prometheus.TrackDBOperation("supplier_create")(time.Now())
	return translate("create supplier", s.db.WithContext(ctx).Create(supplier).Error)
}

func (s *PostgresStore) UpdateSupplier(ctx context.Context, supplier *model.Supplier) error {
	defer prometheus.TrackDBOperation("supplier_update")(time.Now())
	supplier.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).Model(&model.Supplier{}).Where("id = ?", supplier.ID).
		Updates(map[string]interface{}{
			"name":            supplier.Name,
			"domain":          supplier.Domain,
			"organization_id": supplier.OrganizationID,
			"updated_at":      supplier.UpdatedAt,
		})
	if res.Error != nil {
		return translate("update supplier", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteSupplier(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("supplier_delete")(time.Now())
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ingredientIDs := tx.Model(&model.Ingredient{}).Select("id").Where("supplier_id = ?", id)
		if err := tx.Where("ingredient_id IN (?)", ingredientIDs).Delete(&model.Claim{}).Error; err != nil {
			return translate("delete supplier claims", err)
		}
		if err := tx.Where("supplier_id = ?", id).Delete(&model.Ingredient{}).Error; err != nil {
			return translate("delete supplier ingredients", err)
		}
		res := tx.Delete(&model.Supplier{}, id)
		if res.Error != nil {
			return translate("delete supplier", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) AddIngredient(ctx context.Context, supplierID uint, ingredient *model.Ingredient) error {
	defer prometheus.TrackDBOperation("ingredient_create")(time.Now())
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Supplier{}).Where("id = ?", supplierID).Count(&count).Error; err != nil {
			return translate("check supplier", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		ingredient.ID = 0
		ingredient.SupplierID = supplierID
		for i := range ingredient.Claims {
			ingredient.Claims[i].ID = 0
		}
		return translate("create ingredient", tx.Create(ingredient).Error)
	})
}

func (s *PostgresStore) ReplaceIngredient(ctx context.Context, supplierID uint, ingredient *model.Ingredient) error {
	defer prometheus.TrackDBOperation("ingredient_replace")(time.Now())
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Ingredient
		err := tx.Where("id = ? AND supplier_id = ?", ingredient.ID, supplierID).First(&existing).Error
		if err != nil {
			return translate("get ingredient", err)
		}

		ingredient.SupplierID = supplierID
		ingredient.CreatedAt = existing.CreatedAt
		ingredient.UpdatedAt = time.Now()
		err = tx.Model(&existing).Updates(map[string]interface{}{
			"ingredient_name":   ingredient.IngredientName,
			"description":       ingredient.Description,
			"limitations":       ingredient.Limitations,
			"application_notes": ingredient.ApplicationNotes,
			"updated_at":        ingredient.UpdatedAt,
		}).Error
		if err != nil {
			return translate("update ingredient", err)
		}

		if err := tx.Where("ingredient_id = ?", ingredient.ID).Delete(&model.Claim{}).Error; err != nil {
			return translate("delete ingredient claims", err)
		}
		for i := range ingredient.Claims {
			ingredient.Claims[i].ID = 0
			ingredient.Claims[i].IngredientID = ingredient.ID
		}
		if len(ingredient.Claims) > 0 {
			if err := tx.Create(&ingredient.Claims).Error; err != nil {
				return translate("create ingredient claims", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) DeleteIngredient(ctx context.Context, supplierID, ingredientID uint) error {
	defer prometheus.TrackDBOperation("ingredient_delete")(time.Now())
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Ingredient{}).
			Where("id = ? AND supplier_id = ?", ingredientID, supplierID).
			Count(&count).Error
		if err != nil {
			return translate("check ingredient", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Where("ingredient_id = ?", ingredientID).Delete(&model.Claim{}).Error; err != nil {
			return translate("delete ingredient claims", err)
		}
		return translate("delete ingredient", tx.Delete(&model.Ingredient{}, ingredientID).Error)
	})
}
