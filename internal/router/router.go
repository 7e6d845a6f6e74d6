package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/table-reservation/internal/handler"    // handlers that implement the endpoints
	"github.com/iliyamo/table-reservation/internal/metrics"    // Prometheus exposition
	"github.com/iliyamo/table-reservation/internal/middleware" // JWT, role, rate limit and cache middleware
	"github.com/iliyamo/table-reservation/internal/model"
)

// Deps carries everything the route table needs.  Limiter and TableCache
// may be nil, in which case the routes run without them.
type Deps struct {
	JWTSecret    string
	Auth         *handler.AuthHandler
	Reservations *handler.ReservationHandler
	Staff        *handler.StaffHandler
	Health       *handler.HealthHandler
	Limiter      echo.MiddlewareFunc
	TableCache   echo.MiddlewareFunc
}

// Register wires every route onto e and installs the request validator.
func Register(e *echo.Echo, d Deps) {
	e.Validator = handler.NewValidator()
	RegisterRoutes(e, d.Health)
	RegisterAuth(e, d)
	RegisterReservations(e, d)
	RegisterStaff(e, d)
}

// RegisterRoutes registers routes that do not require authentication:
// health, service info and metrics.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/info", h.Info)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers the session endpoints.  Signup, login, refresh and
// logout are public; /me requires a valid access token.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/auth", optional(d.Limiter)...)
	g.POST("/signup", d.Auth.Signup)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/logout", d.Auth.Logout)

	e.GET("/me", d.Auth.Me, protected(d)...)
}

// RegisterReservations registers table and reservation endpoints.  Every
// route requires a valid access token; any role may book.
func RegisterReservations(e *echo.Echo, d Deps) {
	mw := protected(d)
	e.GET("/tables", d.Reservations.ListTables, append(mw, optional(d.TableCache)...)...)

	g := e.Group("/reservations", mw...)
	g.GET("/status", d.Reservations.Status)
	g.POST("", d.Reservations.Create)
	g.GET("", d.Reservations.List)
	g.DELETE("/:id", d.Reservations.Cancel)
}

// RegisterStaff registers the STAFF-only day view and export.
func RegisterStaff(e *echo.Echo, d Deps) {
	mw := append(protected(d), middleware.RequireRole(model.RoleStaff))
	g := e.Group("/admin", mw...)
	g.GET("/reservations", d.Staff.ListByDate)
	g.GET("/reservations/export", d.Staff.Export)
}

// protected returns JWTAuth followed by the rate limiter, so buckets are
// keyed by the authenticated user.
func protected(d Deps) []echo.MiddlewareFunc {
	return append([]echo.MiddlewareFunc{middleware.JWTAuth(d.JWTSecret)}, optional(d.Limiter)...)
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
