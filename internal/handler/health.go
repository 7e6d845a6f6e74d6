package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "database/sql"
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Version is reported by /info.
const Version = "1.0.0"

// HealthHandler answers liveness and service description probes.
type HealthHandler struct {
    DB          *sql.DB
    HorizonDays int
}

func NewHealthHandler(db *sql.DB, horizonDays int) *HealthHandler {
    return &HealthHandler{DB: db, HorizonDays: horizonDays}
}

// Health is used by load balancers and monitoring systems to verify that
// the service is running.  It pings the database and answers 503 when the
// ping fails.
func (h *HealthHandler) Health(c echo.Context) error {
    body := echo.Map{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)}
    if h.DB != nil {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := h.DB.PingContext(ctx); err != nil {
            body["status"] = "unavailable"
            body["database"] = "unreachable"
            return c.JSON(http.StatusServiceUnavailable, body)
        }
        body["database"] = "ok"
    }
    return c.JSON(http.StatusOK, body)
}

// Info describes the service and its endpoints.
func (h *HealthHandler) Info(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "service":      "restaurant table reservation",
        "version":      Version,
        "horizon_days": h.HorizonDays,
        "time_periods": []string{"lunch", "dinner"},
        "endpoints": echo.Map{
            "auth":         []string{"/auth/signup", "/auth/login", "/auth/refresh", "/auth/logout", "/me"},
            "tables":       []string{"/tables"},
            "reservations": []string{"/reservations", "/reservations/status", "/reservations/:id"},
            "staff":        []string{"/admin/reservations", "/admin/reservations/export"},
            "system":       []string{"/healthz", "/info", "/metrics"},
        },
    })
}
