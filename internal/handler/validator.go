package handler

import (
    "errors"
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo.  Field names in
// errors use the json tag so clients see the names they sent.
type RequestValidator struct {
    v *validator.Validate
}

// NewValidator returns the validator to install as echo.Echo.Validator.
func NewValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(fld reflect.StructField) string {
        name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
        if name == "-" || name == "" {
            return fld.Name
        }
        return name
    })
    return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i interface{}) error {
    return rv.v.Struct(i)
}

// describeValidation turns the first failed rule into a field name and a
// short reason.
func describeValidation(err error) (field, reason string, ok bool) {
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) || len(verrs) == 0 {
        return "", "", false
    }
    fe := verrs[0]
    switch fe.Tag() {
    case "required":
        reason = "is required"
    case "min":
        reason = fmt.Sprintf("must be at least %s", fe.Param())
    case "max":
        reason = fmt.Sprintf("must be at most %s", fe.Param())
    case "gt":
        reason = fmt.Sprintf("must be greater than %s", fe.Param())
    case "datetime":
        reason = "must be YYYY-MM-DD"
    default:
        reason = "is invalid"
    }
    return fe.Field(), reason, true
}
