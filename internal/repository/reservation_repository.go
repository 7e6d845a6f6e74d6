package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/table-reservation/internal/model"
)

// ReservationRepo provides access to the reservations table.  A row exists
// only while the booking is active; the UNIQUE(table_id, reservation_date,
// time_period) key guarantees at most one per slot.  Methods suffixed with
// Tx run inside a caller-owned transaction; the caller must commit or
// rollback.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the handle so services can open transactions spanning
// several repository calls.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, user_id, table_id, reservation_date, time_period, name, phone, payment_ref, guests, created_at`

// lunch sorts before dinner regardless of the alphabet
const reservationOrder = ` ORDER BY reservation_date, CASE time_period WHEN 'lunch' THEN 0 ELSE 1 END, id`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanReservation(s rowScanner) (model.Reservation, error) {
    var res model.Reservation
    var period string
    err := s.Scan(&res.ID, &res.UserID, &res.TableID, &res.Date, &period,
        &res.Name, &res.Phone, &res.PaymentRef, &res.Guests, &res.CreatedAt)
    res.Period = model.TimePeriod(period)
    return res, err
}

// SlotTakenTx reports whether a reservation already occupies the slot.
func (r *ReservationRepo) SlotTakenTx(ctx context.Context, tx *sql.Tx, key model.SlotKey) (bool, error) {
    const q = `SELECT COUNT(*) FROM reservations WHERE table_id = ? AND reservation_date = ? AND time_period = ?`
    var n int
    if err := tx.QueryRowContext(ctx, q, key.TableID, key.Date, string(key.Period)).Scan(&n); err != nil {
        return false, err
    }
    return n > 0, nil
}

// CreateTx inserts a reservation and populates its generated ID.  When the
// slot is already booked, including by a transaction that committed after
// the caller's availability check, ErrDuplicate is returned.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `INSERT INTO reservations (user_id, table_id, reservation_date, time_period, name, phone, payment_ref, guests, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, res.UserID, res.TableID, res.Date, string(res.Period),
        res.Name, res.Phone, res.PaymentRef, res.Guests, res.CreatedAt)
    if err != nil {
        if isDuplicate(err) {
            return ErrDuplicate
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    return nil
}

// GetForUserTx loads a reservation owned by userID.  A reservation that
// does not exist and one that belongs to somebody else are
// indistinguishable: both return sql.ErrNoRows.
func (r *ReservationRepo) GetForUserTx(ctx context.Context, tx *sql.Tx, reservationID, userID uint64) (model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND user_id = ?`
    return scanReservation(tx.QueryRowContext(ctx, q, reservationID, userID))
}

// DeleteTx removes a reservation, which frees its slot.  It reports whether
// a row was deleted.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (bool, error) {
    res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, reservationID)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n > 0, err
}

// BookedTableIDs returns the set of tables that have a reservation for the
// given date and period.
func (r *ReservationRepo) BookedTableIDs(ctx context.Context, date string, period model.TimePeriod) (map[uint64]bool, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT table_id FROM reservations WHERE reservation_date = ? AND time_period = ?`,
        date, string(period))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    booked := make(map[uint64]bool)
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        booked[id] = true
    }
    return booked, rows.Err()
}

// ListByUser returns the user's reservations ordered by date, lunch before
// dinner.  An empty slice is returned when there are none.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ?` + reservationOrder
    return r.list(ctx, q, userID)
}

// ListByDate returns every reservation on a date for the staff view.
func (r *ReservationRepo) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_date = ?` + reservationOrder
    return r.list(ctx, q, date)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    return out, rows.Err()
}
