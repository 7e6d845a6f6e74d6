package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/service"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
    Error   string `json:"error"`
    Message string `json:"message"`
}

func fail(c echo.Context, status int, code, msg string) error {
    return c.JSON(status, errorBody{Error: code, Message: msg})
}

// respondError maps service errors to HTTP responses.  Unknown errors are
// logged with the request id and reported as a generic 500.
func respondError(c echo.Context, log zerolog.Logger, err error) error {
    var ve *service.ValidationError
    switch {
    case errors.As(err, &ve):
        return fail(c, http.StatusBadRequest, "validation_error", ve.Error())
    case errors.Is(err, service.ErrValidation):
        return fail(c, http.StatusBadRequest, "validation_error", err.Error())
    case errors.Is(err, service.ErrSlotUnavailable):
        return fail(c, http.StatusConflict, "slot_unavailable", "this table is already booked for that date and time period")
    case errors.Is(err, service.ErrSameDayLockout):
        return fail(c, http.StatusBadRequest, "same_day_lockout", "reservations cannot be cancelled on or after their date")
    case errors.Is(err, service.ErrAuthenticationRequired):
        return fail(c, http.StatusUnauthorized, "authentication_required", "invalid or missing credentials")
    case errors.Is(err, service.ErrNotFound):
        return fail(c, http.StatusNotFound, "not_found", err.Error())
    case errors.Is(err, service.ErrDuplicateAccount):
        return fail(c, http.StatusConflict, "duplicate_account", "username or nickname already in use")
    }
    log.Error().Err(err).
        Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
        Str("path", c.Path()).
        Msg("request failed")
    return fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
}

// bindAndValidate decodes the JSON body into req and runs struct
// validation.  It writes the 400 response itself and returns ok=false when
// the request is rejected.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
    if err := c.Bind(req); err != nil {
        return false, fail(c, http.StatusBadRequest, "validation_error", "invalid request body")
    }
    if err := c.Validate(req); err != nil {
        if field, reason, ok := describeValidation(err); ok {
            return false, fail(c, http.StatusBadRequest, "validation_error", field+": "+reason)
        }
        return false, fail(c, http.StatusBadRequest, "validation_error", err.Error())
    }
    return true, nil
}
