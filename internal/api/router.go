package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/servicedesk/service-desk/docs"
	"github.com/servicedesk/service-desk/internal/api/handler"
	"github.com/servicedesk/service-desk/internal/api/middleware"
	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
	"github.com/servicedesk/service-desk/internal/core/service"
	"github.com/servicedesk/service-desk/internal/infrastructure/http/handlers"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Access  ports.AccessService
	Tickets ports.TicketService
	Catalog ports.CatalogService
	Tokens  *service.TokenService
	Revoker ports.TokenRevoker
	Checks  map[string]handlers.Check
	Logger  zerolog.Logger

	// LoginRate and LoginBurst throttle POST /auth/login per client IP.
	LoginRate  rate.Limit
	LoginBurst int
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("servicedesk"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Access, deps.Tokens, deps.Revoker, deps.Logger)
	userHandler := handler.NewUserHandler(deps.Access)
	ticketHandler := handler.NewTicketHandler(deps.Tickets)
	catalogHandler := handler.NewCatalogHandler(deps.Catalog)

	authenticated := []echo.MiddlewareFunc{
		middleware.Auth(deps.Tokens, deps.Revoker, deps.Logger),
		middleware.LoadRequester(deps.Access),
	}
	require := middleware.RequirePermission

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login, middleware.RateLimitPerIP(deps.LoginRate, deps.LoginBurst))
	auth := e.Group("/auth", authenticated...)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me)
	auth.POST("/password", authHandler.ChangePassword)

	v1 := e.Group("/v1", authenticated...)

	// --- Users ---
	v1.GET("/users", userHandler.List)
	v1.POST("/users", userHandler.Create, require(domain.PermCreateUsers))
	v1.GET("/users/export", userHandler.Export, require(domain.PermExportData))
	v1.GET("/users/stats", userHandler.Stats)
	v1.GET("/users/:id", userHandler.Get)
	v1.PATCH("/users/:id", userHandler.Update, require(domain.PermEditUsers))
	v1.DELETE("/users/:id", userHandler.Delete, require(domain.PermDeleteUsers))

	// --- Tickets ---
	v1.GET("/tickets", ticketHandler.List)
	v1.POST("/tickets", ticketHandler.Create)
	v1.GET("/tickets/:id", ticketHandler.Get)
	v1.PATCH("/tickets/:id", ticketHandler.Update)
	v1.DELETE("/tickets/:id", ticketHandler.Delete, require(domain.PermManageTickets))

	// --- Catalog ---
	v1.GET("/departments", catalogHandler.ListDepartments)
	v1.POST("/departments", catalogHandler.CreateDepartment, require(domain.PermManageDepartments))
	v1.DELETE("/departments/:id", catalogHandler.DeleteDepartment, require(domain.PermManageDepartments))
	v1.GET("/categories", catalogHandler.ListCategories)
	v1.POST("/categories", catalogHandler.CreateCategory, require(domain.PermManageCategories))
	v1.DELETE("/categories/:id", catalogHandler.DeleteCategory, require(domain.PermManageCategories))

	// --- Reports ---
	v1.GET("/reports/tickets", ticketHandler.Stats, require(domain.PermViewReports))

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
