package database

import (
	"context"
	"database/sql"
	"fmt"
)

// The reservations table carries UNIQUE(table_id, reservation_date,
// time_period).  Cancelling deletes the row, so the constraint is exactly
// "one active reservation per slot" and it is what makes concurrent bookings
// of the same slot safe.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL,
		nickname VARCHAR(64) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'CUSTOMER',
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_nickname (nickname)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME(6) NOT NULL,
		revoked_at DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS dining_tables (
		id BIGINT UNSIGNED NOT NULL PRIMARY KEY,
		capacity INT NOT NULL,
		table_type VARCHAR(32) NOT NULL DEFAULT ''
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		table_id BIGINT UNSIGNED NOT NULL,
		reservation_date CHAR(10) NOT NULL,
		time_period VARCHAR(8) NOT NULL,
		name VARCHAR(100) NOT NULL,
		phone VARCHAR(32) NOT NULL,
		payment_ref VARCHAR(64) NOT NULL,
		guests INT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_reservations_slot (table_id, reservation_date, time_period),
		KEY idx_reservations_user (user_id),
		KEY idx_reservations_date (reservation_date, time_period),
		CONSTRAINT fk_reservations_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_reservations_table FOREIGN KEY (table_id) REFERENCES dining_tables (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		nickname TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'CUSTOMER',
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dining_tables (
		id INTEGER PRIMARY KEY,
		capacity INTEGER NOT NULL,
		table_type TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users (id),
		table_id INTEGER NOT NULL REFERENCES dining_tables (id),
		reservation_date TEXT NOT NULL,
		time_period TEXT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		payment_ref TEXT NOT NULL,
		guests INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (table_id, reservation_date, time_period)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations (reservation_date, time_period)`,
}

// Migrate creates the schema for the given driver.  Statements are
// idempotent so it runs on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverMySQL:
		stmts = mysqlSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
