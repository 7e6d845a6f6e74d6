package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/model"
    "github.com/iliyamo/table-reservation/internal/repository"
    "github.com/iliyamo/table-reservation/internal/utils"
)

// AuthConfig carries the token and hashing parameters of AuthService.
type AuthConfig struct {
    JWTSecret  string
    AccessTTL  time.Duration
    RefreshTTL time.Duration
    BcryptCost int
}

// AuthService implements signup, login, refresh-token rotation and logout.
type AuthService struct {
    users  *repository.UserRepo
    tokens *repository.TokenRepo
    cfg    AuthConfig
    log    zerolog.Logger
}

func NewAuthService(users *repository.UserRepo, tokens *repository.TokenRepo, cfg AuthConfig, log zerolog.Logger) *AuthService {
    return &AuthService{users: users, tokens: tokens, cfg: cfg, log: log}
}

// Session is the result of a successful login or refresh.
type Session struct {
    User    model.User
    Access  utils.AccessToken
    Refresh utils.RefreshToken
}

// Signup registers a customer account.  Username and nickname are trimmed;
// all three fields are required.
func (s *AuthService) Signup(ctx context.Context, username, nickname, password string) (model.User, error) {
    username, nickname = strings.TrimSpace(username), strings.TrimSpace(nickname)
    switch {
    case username == "":
        return model.User{}, invalid("username", "is required")
    case nickname == "":
        return model.User{}, invalid("nickname", "is required")
    case password == "":
        return model.User{}, invalid("password", "is required")
    case len(password) > utils.MaxPasswordBytes:
        return model.User{}, invalid("password", fmt.Sprintf("must be at most %d bytes", utils.MaxPasswordBytes))
    }

    exists, err := s.users.ExistsByUsernameOrNickname(ctx, username, nickname)
    if err != nil {
        return model.User{}, fmt.Errorf("check account: %w", err)
    }
    if exists {
        return model.User{}, ErrDuplicateAccount
    }
    // a concurrent signup can still win the race; the unique keys catch it
    u, err := s.users.Create(ctx, username, nickname, password, model.RoleCustomer, s.cfg.BcryptCost)
    if errors.Is(err, repository.ErrDuplicate) {
        return model.User{}, ErrDuplicateAccount
    }
    if err != nil {
        return model.User{}, fmt.Errorf("create user: %w", err)
    }
    s.log.Info().Uint64("user_id", u.ID).Str("username", u.Username).Msg("user signed up")
    return u, nil
}

// Login verifies credentials and issues a new token pair.  Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
    username = strings.TrimSpace(username)
    if username == "" || password == "" {
        return Session{}, invalid("credentials", "username and password are required")
    }
    u, err := s.users.GetByUsername(ctx, username)
    if errors.Is(err, sql.ErrNoRows) {
        return Session{}, ErrAuthenticationRequired
    }
    if err != nil {
        return Session{}, fmt.Errorf("load user: %w", err)
    }
    if !utils.VerifyPassword(u.PasswordHash, password) {
        return Session{}, ErrAuthenticationRequired
    }
    return s.issue(ctx, u)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.  A token can be used only once.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return Session{}, invalid("refresh_token", "is required")
    }
    hash := utils.HashRefreshRaw(raw)
    userID, err := s.tokens.ValidateRefresh(ctx, hash)
    if errors.Is(err, sql.ErrNoRows) {
        return Session{}, ErrAuthenticationRequired
    }
    if err != nil {
        return Session{}, fmt.Errorf("validate refresh: %w", err)
    }
    revoked, err := s.tokens.RevokeByHash(ctx, hash)
    if err != nil {
        return Session{}, fmt.Errorf("revoke refresh: %w", err)
    }
    if !revoked {
        // lost a race with a concurrent refresh of the same token
        return Session{}, ErrAuthenticationRequired
    }
    u, err := s.users.GetByID(ctx, userID)
    if errors.Is(err, sql.ErrNoRows) {
        return Session{}, ErrAuthenticationRequired
    }
    if err != nil {
        return Session{}, fmt.Errorf("load user: %w", err)
    }
    return s.issue(ctx, u)
}

// Logout revokes a single refresh token when one is given, otherwise every
// token of userID.  At least one of the two must be present.
func (s *AuthService) Logout(ctx context.Context, userID uint64, raw string) error {
    raw = strings.TrimSpace(raw)
    if raw != "" {
        ok, err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
        if err != nil {
            return fmt.Errorf("revoke refresh: %w", err)
        }
        if !ok {
            return ErrAuthenticationRequired
        }
        return nil
    }
    if userID == 0 {
        return invalid("refresh_token", "provide a bearer token or refresh_token")
    }
    if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
        return fmt.Errorf("revoke all: %w", err)
    }
    return nil
}

// Me loads the account behind a session.
func (s *AuthService) Me(ctx context.Context, userID uint64) (model.User, error) {
    u, err := s.users.GetByID(ctx, userID)
    if errors.Is(err, sql.ErrNoRows) {
        return model.User{}, ErrNotFound
    }
    return u, err
}

func (s *AuthService) issue(ctx context.Context, u model.User) (Session, error) {
    access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTL)
    if err != nil {
        return Session{}, fmt.Errorf("issue access: %w", err)
    }
    refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTL)
    if err != nil {
        return Session{}, fmt.Errorf("issue refresh: %w", err)
    }
    if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return Session{}, fmt.Errorf("save refresh: %w", err)
    }
    return Session{User: u, Access: access, Refresh: refresh}, nil
}
