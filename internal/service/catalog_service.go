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
	defaultSupplierPerPage = 10
	maxSupplierPerPage     = 100
)

// ClaimInput is a claim as submitted by clients
type ClaimInput struct {
	Verbatim string   `json:"verbatim"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// IngredientInput is an ingredient with its full claim list
type IngredientInput struct {
	IngredientName   string       `json:"ingredient_name"`
	Description      string       `json:"description"`
	Limitations      string       `json:"limitations"`
	ApplicationNotes string       `json:"application_notes"`
	Claims           []ClaimInput `json:"claims"`
}

// SupplierInput creates a supplier, optionally with ingredients
type SupplierInput struct {
	Name           string            `json:"name"`
	Domain         string            `json:"domain"`
	OrganizationID *uint             `json:"organization_id"`
	Ingredients    []IngredientInput `json:"ingredients"`
}

// SupplierPatch is a partial supplier update
type SupplierPatch struct {
	Name           *string `json:"name"`
	Domain         *string `json:"domain"`
	OrganizationID *uint   `json:"organization_id"`
}

// SupplierView is a supplier with the distinct claim categories across its ingredients
type SupplierView struct {
	model.Supplier
	Categories []string `json:"categories"`
}

// SupplierPagination describes one page of the supplier listing
type SupplierPagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

// SupplierPage is one page of the supplier listing
type SupplierPage struct {
	Suppliers  []SupplierView     `json:"suppliers"`
	Pagination SupplierPagination `json:"pagination"`
}

func newSupplierView(s *model.Supplier) SupplierView {
	if s.Ingredients == nil {
		s.Ingredients = []model.Ingredient{}
	}
	return SupplierView{Supplier: *s, Categories: s.Categories()}
}

func (in IngredientInput) toModel() (*model.Ingredient, error) {
	ingredient := &model.Ingredient{
		IngredientName:   in.IngredientName,
		Description:      strings.TrimSpace(in.Description),
		Limitations:      strings.TrimSpace(in.Limitations),
		ApplicationNotes: strings.TrimSpace(in.ApplicationNotes),
		Claims:           make([]model.Claim, 0, len(in.Claims)),
	}
	for _, c := range in.Claims {
		ingredient.Claims = append(ingredient.Claims, model.Claim{
			Verbatim: c.Verbatim,
			Category: strings.TrimSpace(c.Category),
			Tags:     c.Tags,
		})
	}
	if err := ingredient.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	return ingredient, nil
}

// CatalogService manages suppliers, their ingredients and claims
type CatalogService struct {
	suppliers store.SupplierStore
}

// NewCatalogService creates a CatalogService
func NewCatalogService(suppliers store.SupplierStore) *CatalogService {
	return &CatalogService{suppliers: suppliers}
}

// ListSuppliers returns a page of suppliers matching search on name or domain
func (s *CatalogService) ListSuppliers(ctx context.Context, search string, page, perPage int) (*SupplierPage, error) {
	page, perPage = normalizePage(page, perPage, defaultSupplierPerPage, maxSupplierPerPage)

	rows, total, err := s.suppliers.ListSuppliers(ctx, store.Query{
		Search: strings.TrimSpace(search),
		Offset: offset(page, perPage),
		Limit:  perPage,
	})
	if err != nil {
		return nil, apperror.Unexpected(err)
	}

	views := make([]SupplierView, 0, len(rows))
	for i := range rows {
		views = append(views, newSupplierView(&rows[i]))
	}
	p := newPagination(page, perPage, total)
	return &SupplierPage{
		Suppliers:  views,
		Pagination: SupplierPagination{Page: p.Page, PerPage: p.Limit, Total: p.Total, Pages: p.Pages},
	}, nil
}

// GetSupplier returns a supplier with its ingredients and claims
func (s *CatalogService) GetSupplier(ctx context.Context, id uint) (*SupplierView, error) {
	supplier, err := s.suppliers.GetSupplier(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Supplier")
	}
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	view := newSupplierView(supplier)
	return &view, nil
}

// CreateSupplier stores a supplier with a unique name
func (s *CatalogService) CreateSupplier(ctx context.Context, in SupplierInput) (*SupplierView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}

	supplier := &model.Supplier{
		Name:           name,
		Domain:         strings.ToLower(strings.TrimSpace(in.Domain)),
		OrganizationID: in.OrganizationID,
	}
	for _, ing := range in.Ingredients {
		ingredient, err := ing.toModel()
		if err != nil {
			return nil, err
		}
		supplier.Ingredients = append(supplier.Ingredients, *ingredient)
	}

	if err := s.suppliers.CreateSupplier(ctx, supplier); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Conflict("Supplier with this name already exists")
		}
		return nil, apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("supplier", "create")
	view := newSupplierView(supplier)
	return &view, nil
}

// UpdateSupplier applies a partial update to the supplier's own fields
func (s *CatalogService) UpdateSupplier(ctx context.Context, id uint, patch SupplierPatch) (*SupplierView, error) {
	current, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	supplier := current.Supplier

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		supplier.Name = name
	}
	if patch.Domain != nil {
		supplier.Domain = strings.ToLower(strings.TrimSpace(*patch.Domain))
	}
	if patch.OrganizationID != nil {
		supplier.OrganizationID = patch.OrganizationID
	}

	if err := s.suppliers.UpdateSupplier(ctx, &supplier); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, apperror.Conflict("Supplier with this name already exists")
		case errors.Is(err, store.ErrNotFound):
			return nil, apperror.NotFound("Supplier")
		}
		return nil, apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("supplier", "update")
	return s.GetSupplier(ctx, id)
}

// DeleteSupplier removes a supplier together with its ingredients and claims
func (s *CatalogService) DeleteSupplier(ctx context.Context, id uint) error {
	err := s.suppliers.DeleteSupplier(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound("Supplier")
	}
	if err != nil {
		return apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("supplier", "delete")
	return nil
}

// AddIngredient appends an ingredient to a supplier
func (s *CatalogService) AddIngredient(ctx context.Context, supplierID uint, in IngredientInput) (*model.Ingredient, error) {
	ingredient, err := in.toModel()
	if err != nil {
		return nil, err
	}

	err = s.suppliers.AddIngredient(ctx, supplierID, ingredient)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Supplier")
	}
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("ingredient", "create")
	return ingredient, nil
}

// ReplaceIngredient overwrites an ingredient and its claims
func (s *CatalogService) ReplaceIngredient(ctx context.Context, supplierID, ingredientID uint, in IngredientInput) (*model.Ingredient, error) {
	ingredient, err := in.toModel()
	if err != nil {
		return nil, err
	}
	ingredient.ID = ingredientID

	err = s.suppliers.ReplaceIngredient(ctx, supplierID, ingredient)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Ingredient")
	}
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("ingredient", "update")
	return ingredient, nil
}

// DeleteIngredient removes an ingredient from a supplier
func (s *CatalogService) DeleteIngredient(ctx context.Context, supplierID, ingredientID uint) error {
	err := s.suppliers.DeleteIngredient(ctx, supplierID, ingredientID)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound("Ingredient")
	}
	if err != nil {
		return apperror.Unexpected(err)
	}
	prometheus.RecordEntityOperation("ingredient", "delete")
	return nil
}
