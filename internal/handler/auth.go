package handler

import (
    "net/http" // HTTP status codes and primitives
    "time"     // token expiry timestamps

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing
    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/config"
    "github.com/iliyamo/table-reservation/internal/middleware"
    "github.com/iliyamo/table-reservation/internal/model"
    "github.com/iliyamo/table-reservation/internal/service"
    "github.com/iliyamo/table-reservation/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg  config.Config
    Auth *service.AuthService
    Log  zerolog.Logger
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService, log zerolog.Logger) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Auth: auth, Log: log}
}

// ----- DTOs -----

type signupReq struct {
    Username string `json:"username" validate:"required,max=64"`
    Nickname string `json:"nickname" validate:"required,max=64"`
    Password string `json:"password" validate:"required,max=72"`
}
type loginReq struct {
    Username string `json:"username" validate:"required"`
    Password string `json:"password" validate:"required"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type userPart struct {
    ID        uint64    `json:"id"`
    Username  string    `json:"username"`
    Nickname  string    `json:"nickname"`
    Role      string    `json:"role"`
    CreatedAt time.Time `json:"created_at"`
}
type authResp struct {
    AccessToken  string    `json:"access_token"`
    TokenType    string    `json:"token_type"`
    ExpiresAt    time.Time `json:"expires_at"`
    RefreshToken string    `json:"refresh_token"`
    RefreshExp   time.Time `json:"refresh_expires_at"`
    User         userPart  `json:"user"`
}

func toUserPart(u model.User) userPart {
    return userPart{ID: u.ID, Username: u.Username, Nickname: u.Nickname, Role: u.Role, CreatedAt: u.CreatedAt}
}

func toAuthResp(s service.Session) authResp {
    return authResp{
        AccessToken:  s.Access.Token,
        TokenType:    "bearer",
        ExpiresAt:    s.Access.Exp,
        RefreshToken: s.Refresh.Raw, // raw back to client
        RefreshExp:   s.Refresh.Exp,
        User:         toUserPart(s.User),
    }
}

// Signup handles POST /auth/signup and returns the created account.
func (h *AuthHandler) Signup(c echo.Context) error {
    var req signupReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    u, err := h.Auth.Signup(c.Request().Context(), req.Username, req.Nickname, req.Password)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, toUserPart(u))
}

// Login handles POST /auth/login: verify and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    s, err := h.Auth.Login(c.Request().Context(), req.Username, req.Password)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toAuthResp(s))
}

// Refresh handles POST /auth/refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "validation_error", "invalid request body")
    }
    s, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toAuthResp(s))
}

// Logout handles POST /auth/logout.  A refresh_token in the body revokes
// that session; otherwise a valid bearer token revokes every session of
// its user.  The route is public, so the bearer is checked here.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)

    var uid uint64
    if raw, ok := middleware.BearerToken(c); ok {
        claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, raw)
        if err != nil {
            return fail(c, http.StatusUnauthorized, "authentication_required", "invalid or expired token")
        }
        uid, _ = claims.UserID()
    }
    if err := h.Auth.Logout(c.Request().Context(), uid, req.RefreshToken); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me handles GET /me and returns the account behind the session.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, ok := middleware.CurrentUserID(c)
    if !ok {
        return respondError(c, h.Log, service.ErrAuthenticationRequired)
    }
    u, err := h.Auth.Me(c.Request().Context(), uid)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}
