package service

import (
    "errors"
    "fmt"
)

// Domain errors returned by the services.  Handlers map each of them to one
// HTTP status; anything else is an infrastructure failure.
var (
    ErrValidation             = errors.New("validation error")
    ErrSlotUnavailable        = errors.New("slot is already booked")
    ErrSameDayLockout         = errors.New("reservations can only be cancelled before their date")
    ErrAuthenticationRequired = errors.New("authentication required")
    ErrNotFound               = errors.New("not found")
    ErrDuplicateAccount       = errors.New("username or nickname already in use")
)

// ValidationError names the offending field.  It matches ErrValidation
// with errors.Is.
type ValidationError struct {
    Field  string
    Reason string
}

func (e *ValidationError) Error() string {
    return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, reason string) error {
    return &ValidationError{Field: field, Reason: reason}
}
