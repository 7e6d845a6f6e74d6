package handler

import (
    "net/http" // HTTP status codes
    "strconv"  // parsing path parameters

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/middleware"
    "github.com/iliyamo/table-reservation/internal/service"
)

// ReservationHandler serves the table layout, slot status, booking, listing
// and cancellation.  All routes sit behind JWTAuth.
type ReservationHandler struct {
    Svc *service.ReservationService
    Log zerolog.Logger
}

func NewReservationHandler(svc *service.ReservationService, log zerolog.Logger) *ReservationHandler {
    if svc == nil {
        panic("nil service passed to NewReservationHandler")
    }
    return &ReservationHandler{Svc: svc, Log: log}
}

type createReservationReq struct {
    TableID    uint64 `json:"table_id" validate:"required"`
    Date       string `json:"reservation_date" validate:"required"`
    TimePeriod string `json:"time_period" validate:"required"`
    Name       string `json:"name" validate:"required,max=100"`
    Phone      string `json:"phone" validate:"required,max=32"`
    CreditCard string `json:"credit_card" validate:"required,max=64"`
    Guests     int    `json:"guests" validate:"required,min=1"`
}

// ListTables handles GET /tables.
func (h *ReservationHandler) ListTables(c echo.Context) error {
    tables, err := h.Svc.Tables(c.Request().Context())
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, tables)
}

// Status handles GET /reservations/status?date=YYYY-MM-DD&time_period=lunch
// and returns every table's state for that slot.
func (h *ReservationHandler) Status(c echo.Context) error {
    av, err := h.Svc.Availability(c.Request().Context(), c.QueryParam("date"), c.QueryParam("time_period"))
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, av)
}

// Create handles POST /reservations.  It returns 201 with the reservation,
// 409 when the slot is taken and 400 for invalid input.
func (h *ReservationHandler) Create(c echo.Context) error {
    userID, ok := middleware.CurrentUserID(c)
    if !ok {
        return respondError(c, h.Log, service.ErrAuthenticationRequired)
    }
    var req createReservationReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    res, err := h.Svc.Book(c.Request().Context(), service.BookRequest{
        UserID:     userID,
        TableID:    req.TableID,
        Date:       req.Date,
        Period:     req.TimePeriod,
        Guests:     req.Guests,
        Name:       req.Name,
        Phone:      req.Phone,
        PaymentRef: req.CreditCard,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, res)
}

// List handles GET /reservations and returns the caller's reservations.
// When none exist it returns an empty array.
func (h *ReservationHandler) List(c echo.Context) error {
    userID, ok := middleware.CurrentUserID(c)
    if !ok {
        return respondError(c, h.Log, service.ErrAuthenticationRequired)
    }
    list, err := h.Svc.ListForUser(c.Request().Context(), userID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Cancel handles DELETE /reservations/:id.  It returns 204 on success, 404
// when the reservation does not exist or belongs to someone else and 400
// when the reservation is dated today or earlier.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    userID, ok := middleware.CurrentUserID(c)
    if !ok {
        return respondError(c, h.Log, service.ErrAuthenticationRequired)
    }
    resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || resID == 0 {
        return fail(c, http.StatusBadRequest, "validation_error", "invalid reservation id")
    }
    if err := h.Svc.Cancel(c.Request().Context(), userID, resID); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}
