package handler

import (
	"net/http"

	"directory-service/internal/response"
	"directory-service/internal/service"
	"directory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OrganizationHandler serves the admin organization endpoints
type OrganizationHandler struct {
	orgs *service.OrganizationService
}

// NewOrganizationHandler creates an OrganizationHandler
func NewOrganizationHandler(orgs *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

// List handles GET /api/organizations
func (h *OrganizationHandler) List(c echo.Context) error {
	page, err := h.orgs.List(c.Request().Context(),
		c.QueryParam("search"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "", echo.Map{
		"organizations": page.Organizations,
		"pagination":    page.Pagination,
	})
}

// Create handles POST /api/organizations
func (h *OrganizationHandler) Create(c echo.Context) error {
	var req service.OrganizationInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse organization", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}

	organization, err := h.orgs.Create(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	logger.FromContext(c).Info("Organization created", zap.Uint("organization_id", organization.ID))
	return response.OK(c, http.StatusCreated, "Organization created successfully", echo.Map{
		"organization": organization,
	})
}

// Get handles GET /api/organizations/:org_id
func (h *OrganizationHandler) Get(c echo.Context) error {
	id, err := parseID(c, "org_id")
	if err != nil {
		return response.Error(c, err)
	}
	organization, err := h.orgs.Get(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "", echo.Map{"organization": organization})
}

// Update handles PUT /api/organizations/:org_id
func (h *OrganizationHandler) Update(c echo.Context) error {
	id, err := parseID(c, "org_id")
	if err != nil {
		return response.Error(c, err)
	}
	var req service.OrganizationPatch
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Debug("Failed to parse organization update", zap.Error(err))
		return response.Error(c, errInvalidBody)
	}

	organization, err := h.orgs.Update(c.Request().Context(), id, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "Organization updated successfully", echo.Map{
		"organization": organization,
	})
}

// Delete handles DELETE /api/organizations/:org_id
func (h *OrganizationHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "org_id")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.orgs.Delete(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	logger.FromContext(c).Info("Organization deleted", zap.Uint("organization_id", id))
	return response.OK(c, http.StatusOK, "Organization deleted successfully", nil)
}

// Members handles GET /api/organizations/:org_id/members
func (h *OrganizationHandler) Members(c echo.Context) error {
	id, err := parseID(c, "org_id")
	if err != nil {
		return response.Error(c, err)
	}
	page, err := h.orgs.Members(c.Request().Context(), id, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, http.StatusOK, "", echo.Map{
		"members":    page.Members,
		"pagination": page.Pagination,
	})
}
