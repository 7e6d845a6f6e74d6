package model

import "time"

// Roles assigned to users.  Everybody who signs up is a customer; staff
// accounts are created by the seed command.
const (
    RoleCustomer = "CUSTOMER"
    RoleStaff    = "STAFF"
)

// User represents an account as stored in the `users` table.  Both the
// username (login name) and the nickname (display name) are unique.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Nickname     – unique display name.
//  PasswordHash – bcrypt hashed password.
//  Role         – CUSTOMER or STAFF.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Nickname     string    // users.nickname
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (nil while active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
