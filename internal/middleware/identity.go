package middleware

// identity.go holds helpers that read the caller set by JWTAuth.  When no
// token has been verified the caller is anonymous.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// CurrentUserID returns the authenticated user's id.  ok is false for
// anonymous requests.
func CurrentUserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id != 0
}

// CurrentRole returns the role claim of the authenticated user, or "".
func CurrentRole(c echo.Context) string {
    role, _ := c.Get(ctxRole).(string)
    return role
}

// identityKey identifies the caller in rate-limit keys; "anon" when the
// request carries no verified token.
func identityKey(c echo.Context) string {
    if id, ok := CurrentUserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
