package handler

import (
	"directory-service/internal/middleware"
	"directory-service/internal/service"

	"github.com/labstack/echo/v4"
)

// Services bundles the application services the routes delegate to
type Services struct {
	Auth          *service.AuthService
	Admin         *service.AdminService
	Organizations *service.OrganizationService
	Members       *service.MemberService
	Catalog       *service.CatalogService
}

// RouterConfig carries the route-level guards
type RouterConfig struct {
	Tokens           middleware.TokenValidator
	EnforceAdminRole bool
	// AuthRateLimit is the per-client request budget per minute on /api/auth; 0 disables it.
	AuthRateLimit int
	DB            Pinger
}

// RegisterRoutes mounts every endpoint on e
func RegisterRoutes(e *echo.Echo, svc Services, cfg RouterConfig) {
	health := NewHealthHandler(cfg.DB)
	e.GET("/health", health.HealthCheck)
	e.GET("/metrics", MetricsHandler)

	memberAuth := middleware.MemberAuth(cfg.Tokens)
	adminGate := middleware.AdminGate(svc.Admin, cfg.Tokens, cfg.EnforceAdminRole)

	api := e.Group("/api")

	// Public authentication routes
	authHandler := NewAuthHandler(svc.Auth)
	auth := api.Group("/auth", middleware.NewRateLimiter(cfg.AuthRateLimit).Middleware())
	auth.POST("/request-otp", authHandler.RequestOTP)
	auth.POST("/sign-up", authHandler.SignUp)
	auth.POST("/sign-in", authHandler.SignIn)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// Rotation authenticates with the current secret itself
	adminHandler := NewAdminHandler(svc.Admin)
	api.POST("/admin/secret", adminHandler.UpdateSecret)

	orgHandler := NewOrganizationHandler(svc.Organizations)
	orgs := api.Group("/organizations", adminGate)
	orgs.GET("", orgHandler.List)
	orgs.POST("", orgHandler.Create)
	orgs.GET("/:org_id", orgHandler.Get)
	orgs.PUT("/:org_id", orgHandler.Update)
	orgs.DELETE("/:org_id", orgHandler.Delete)
	orgs.GET("/:org_id/members", orgHandler.Members)

	memberHandler := NewMemberHandler(svc.Members)
	members := api.Group("/members")
	members.GET("/me", memberHandler.Me, memberAuth)
	members.GET("/me/access", memberHandler.MyAccess, memberAuth)
	members.PATCH("/:id", memberHandler.Update, adminGate)
	members.POST("/:id/reset-password", memberHandler.RequestPasswordReset, adminGate)
	members.POST("/:id/resetPassword", memberHandler.RequestPasswordReset, adminGate)
	members.GET("/:id/access", memberHandler.Access, adminGate)

	// Catalog: members read, admins write
	supplierHandler := NewSupplierHandler(svc.Catalog)
	suppliers := api.Group("/suppliers")
	suppliers.GET("", supplierHandler.List, memberAuth)
	suppliers.GET("/:id", supplierHandler.Get, memberAuth)
	suppliers.POST("", supplierHandler.Create, adminGate)
	suppliers.PATCH("/:id", supplierHandler.Update, adminGate)
	suppliers.DELETE("/:id", supplierHandler.Delete, adminGate)
	suppliers.POST("/:id/ingredients", supplierHandler.AddIngredient, adminGate)
	suppliers.PUT("/:id/ingredients/:ingredient_id", supplierHandler.ReplaceIngredient, adminGate)
	suppliers.DELETE("/:id/ingredients/:ingredient_id", supplierHandler.DeleteIngredient, adminGate)
}
