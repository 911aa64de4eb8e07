package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/autodrive/test-drive-portal/internal/config"
	"github.com/autodrive/test-drive-portal/internal/handler"
	"github.com/autodrive/test-drive-portal/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication or
// repositories.  Currently that is only the health check, used by load
// balancers to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.  The open
// operations live under /v1/auth; /v1/me is behind the JWT middleware.
// Logout stays outside the protected group so a client whose access token
// expired can still terminate its session with a refresh token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterCatalog registers the public browse endpoints.  Responses are
// cached in Redis and rate limited; both middlewares degrade to
// pass-through when Redis is unavailable.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, rdb *redis.Client) {
	g := e.Group("",
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	g.GET("/v1/mobil", h.ListCars)
	g.GET("/v1/mobil/:slug", h.GetCarBySlug)
}

// RegisterBooking registers the booking endpoints.  Creating a booking
// requires any authenticated role; the full listing is SALES-only while
// clients see their own bookings via /my-bookings.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/bookings", h.CreateBooking, middleware.RequireRole("CLIENT", "SALES"))
	g.GET("/bookings", h.ListBookings, middleware.RequireRole("SALES"))
	g.GET("/my-bookings", h.MyBookings, middleware.RequireRole("CLIENT", "SALES"))
}

// RegisterSales registers the back-office endpoints under /v1/sales.
// Everything here requires a valid JWT with the SALES role.
func RegisterSales(e *echo.Echo, h *handler.SalesHandler, jwtSecret string) {
	g := e.Group(
		"/v1/sales",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("SALES"),
	)
	g.GET("/dashboard", h.Dashboard)
	g.POST("/mobil", h.CreateCar)
}
