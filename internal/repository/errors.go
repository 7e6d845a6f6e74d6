// Package repository defines error types that are reused across multiple
// repositories.  Lookups that find nothing return sql.ErrNoRows unchanged;
// inserts that hit a unique key return ErrDuplicate so that higher layers
// can tell "already taken" apart from infrastructure failures without
// knowing which database is underneath.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicate is returned when an insert violates a unique constraint,
// e.g. a second reservation for an already booked slot or a taken
// username.
var ErrDuplicate = errors.New("duplicate key")

// mysqlDuplicateEntry is MySQL's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique-constraint violation from
// either supported driver.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
