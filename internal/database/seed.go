package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/table-reservation/internal/model"
)

// SeedTables inserts the table layout when dining_tables is empty and
// returns the number of rows written.  An existing layout is never touched:
// tables are immutable once seeded.
func SeedTables(ctx context.Context, db *sql.DB, tables []model.Table) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dining_tables`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tables: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dining_tables (id, capacity, table_type) VALUES (?, ?, ?)`,
			t.ID, t.Capacity, t.Type); err != nil {
			return 0, fmt.Errorf("seed table %d: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(tables), nil
}
