package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xavisolis/nutmeglocal/internal/auth"
	"github.com/xavisolis/nutmeglocal/internal/config"
	"github.com/xavisolis/nutmeglocal/internal/handler"
	middlewarepkg "github.com/xavisolis/nutmeglocal/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth      *handler.AuthHandler
	Directory *handler.DirectoryHandler
	Events    *handler.EventsHandler
	Analytics *handler.AnalyticsHandler
	Claims    *handler.ClaimsHandler
	Signups   *handler.SignupsHandler
	Import    *handler.ImportHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	admins := auth.NewAllowList(cfg.AdminEmails)
	optional := middlewarepkg.OptionalJWT(jwtManager)

	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/register", handlers.Auth.Register)
	e.POST("/auth/login", handlers.Auth.Login)

	e.GET("/businesses", handlers.Directory.List)
	e.GET("/businesses/:id", handlers.Directory.Get, optional)
	e.GET("/towns", handlers.Directory.Towns)
	e.GET("/towns/:town/:slug", handlers.Directory.GetBySlug)
	e.GET("/categories", handlers.Directory.Categories)
	e.GET("/categories/:slug", handlers.Directory.Category)
	e.GET("/guides", handlers.Directory.Guides)
	e.GET("/guides/:slug", handlers.Directory.Guide)

	beacons := e.Group("/businesses/:id", middlewarepkg.BeaconRateLimiter(cfg.RateLimitEvents), optional)
	beacons.POST("/event", handlers.Events.Event)
	beacons.POST("/view", handlers.Events.View)

	signupLimiter := middlewarepkg.NewFixedWindowLimiter(cfg.RateLimitSignup)
	e.POST("/early-access", handlers.Signups.Signup, signupLimiter.Middleware())

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	secured.PATCH("/businesses/:id", handlers.Directory.Update)
	secured.POST("/businesses/:id/photos", handlers.Directory.AddPhoto)
	secured.GET("/businesses/:id/analytics", handlers.Analytics.Summary)
	secured.POST("/claims", handlers.Claims.Submit)
	secured.GET("/me/claims", handlers.Claims.Mine)
	secured.GET("/me/businesses", handlers.Directory.Mine)

	admin := secured.Group("/admin", middlewarepkg.RequireAdmin(admins))
	admin.GET("/claims", handlers.Claims.List)
	admin.POST("/claims/:id/decision", handlers.Claims.Decide)
	admin.GET("/early-access", handlers.Signups.List)
	admin.POST("/businesses/import", handlers.Import.Import)
}
