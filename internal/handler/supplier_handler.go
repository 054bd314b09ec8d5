package handler

import (
	"net/http"

	"directory-service/internal/response"
	"directory-service/internal/service"
	"directory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SupplierHandler serves the supplier catalog
type SupplierHandler struct {
	catalog *service.CatalogService
}

// NewSupplierHandler creates a SupplierHandler
func NewSupplierHandler(catalog *service.CatalogService) *SupplierHandler {
	return &SupplierHandler{catalog: catalog}
}

// List handles GET /api/suppliers
func (h *SupplierHandler) List(c echo.Context) error {
	page, err := h.catalog.ListSuppliers(c.Request().Context(),
		c.QueryParam("search"), queryInt(c, "page"), queryInt(c, "per_page"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "", echo.Map{"data": page})
}

// Get handles GET /api/suppliers/:id
func (h *SupplierHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	supplier, err := h.catalog.GetSupplier(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "", echo.Map{"data": supplier})
}

// Create handles POST /api/suppliers
func (h *SupplierHandler) Create(c echo.Context) error {
	var req service.SupplierInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse supplier", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}
	supplier, err := h.catalog.CreateSupplier(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusCreated, "Supplier created successfully", echo.Map{"data": supplier})
}

// Update handles PATCH /api/suppliers/:id
func (h *SupplierHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	var req service.SupplierPatch
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse supplier update", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}
	supplier, err := h.catalog.UpdateSupplier(c.Request().Context(), id, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "Supplier updated successfully", echo.Map{"data": supplier})
}

// Delete handles DELETE /api/suppliers/:id
func (h *SupplierHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.catalog.DeleteSupplier(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "Supplier deleted successfully", nil)
}

// AddIngredient handles POST /api/suppliers/:id/ingredients
func (h *SupplierHandler) AddIngredient(c echo.Context) error {
	supplierID, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	var req service.IngredientInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse ingredient", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}
	ingredient, err := h.catalog.AddIngredient(c.Request().Context(), supplierID, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusCreated, "Ingredient added successfully", echo.Map{"ingredient": ingredient})
}

// ReplaceIngredient handles PUT /api/suppliers/:id/ingredients/:ingredient_id
func (h *SupplierHandler) ReplaceIngredient(c echo.Context) error {
	supplierID, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	ingredientID, err := parseID(c, "ingredient_id")
	if err != nil {
		return response.Error(c, err)
	}
	var req service.IngredientInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse ingredient", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}
	ingredient, err := h.catalog.ReplaceIngredient(c.Request().Context(), supplierID, ingredientID, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "Ingredient updated successfully", echo.Map{"ingredient": ingredient})
}

// DeleteIngredient handles DELETE /api/suppliers/:id/ingredients/:ingredient_id
func (h *SupplierHandler) DeleteIngredient(c echo.Context) error {
	supplierID, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	ingredientID, err := parseID(c, "ingredient_id")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.catalog.DeleteIngredient(c.Request().Context(), supplierID, ingredientID); err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "Ingredient deleted successfully", nil)
}
