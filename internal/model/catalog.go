package model

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Supplier is an ingredient supplier in the catalog
type Supplier struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	Name           string       `json:"name" gorm:"type:varchar(150);uniqueIndex;not null"`
	Domain         string       `json:"domain" gorm:"type:varchar(255)"`
	OrganizationID *uint        `json:"organization_id" gorm:"index"`
	Ingredients    []Ingredient `json:"ingredients" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Categories returns the distinct claim categories across the supplier's ingredients, sorted.
func (s *Supplier) Categories() []string {
	set := make(map[string]struct{})
	for _, ing := range s.Ingredients {
		for _, c := range ing.Claims {
			if c.Category != "" {
				set[c.Category] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Ingredient belongs to a supplier and carries marketing claims
type Ingredient struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	SupplierID       uint      `json:"supplier_id" gorm:"index;not null"`
	IngredientName   string    `json:"ingredient_name" gorm:"type:varchar(200);not null"`
	Description      string    `json:"description" gorm:"type:text"`
	Limitations      string    `json:"limitations" gorm:"type:text"`
	ApplicationNotes string    `json:"application_notes" gorm:"type:text"`
	Claims           []Claim   `json:"claims" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Claim is a verbatim statement about an ingredient
type Claim struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	IngredientID uint           `json:"ingredient_id" gorm:"index;not null"`
	Verbatim     string         `json:"verbatim" gorm:"type:text;not null"`
	Category     string         `json:"category" gorm:"type:varchar(100);index"`
	Tags         pq.StringArray `json:"tags" gorm:"type:text[]"`
}

// Validate checks the required ingredient fields, including its claims
func (i *Ingredient) Validate() error {
	i.IngredientName = strings.TrimSpace(i.IngredientName)
	if i.IngredientName == "" {
		return errors.New("ingredient_name is required")
	}
	for idx := range i.Claims {
		i.Claims[idx].Verbatim = strings.TrimSpace(i.Claims[idx].Verbatim)
		if i.Claims[idx].Verbatim == "" {
			return errors.New("claim verbatim is required")
		}
	}
	return nil
}
