package handler

import (
    "bytes"
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/report"
    "github.com/iliyamo/table-reservation/internal/service"
)

// StaffHandler exposes the day sheet to STAFF accounts.
type StaffHandler struct {
    Svc *service.ReservationService
    Log zerolog.Logger
}

func NewStaffHandler(svc *service.ReservationService, log zerolog.Logger) *StaffHandler {
    return &StaffHandler{Svc: svc, Log: log}
}

// ListByDate handles GET /admin/reservations?date=YYYY-MM-DD.
func (h *StaffHandler) ListByDate(c echo.Context) error {
    list, err := h.Svc.ListByDate(c.Request().Context(), c.QueryParam("date"))
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Export handles GET /admin/reservations/export?date=YYYY-MM-DD and streams
// the day as an xlsx workbook.
func (h *StaffHandler) Export(c echo.Context) error {
    ctx := c.Request().Context()
    date := strings.TrimSpace(c.QueryParam("date"))
    list, err := h.Svc.ListByDate(ctx, date)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    tables, err := h.Svc.Tables(ctx)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    var buf bytes.Buffer
    if err := report.WriteDaily(&buf, date, tables, list); err != nil {
        return respondError(c, h.Log, fmt.Errorf("render export: %w", err))
    }
    c.Response().Header().Set(echo.HeaderContentDisposition,
        fmt.Sprintf(`attachment; filename="reservations-%s.xlsx"`, date))
    return c.Blob(http.StatusOK, report.ContentTypeXLSX, buf.Bytes())
}
