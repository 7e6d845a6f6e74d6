package model

import "time"

// Reservation is a confirmed booking of one slot by one user.  A row
// exists only while the booking is active; cancellation deletes it, so a
// slot is booked exactly when a Reservation with its key exists.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user who made the reservation.
//  TableID    – reserved table.
//  Date       – calendar date of the visit (YYYY-MM-DD).
//  Period     – lunch or dinner.
//  Name       – guest name given at booking time.
//  Phone      – contact phone number.
//  PaymentRef – card or payment reference; stored only, never returned.
//  Guests     – party size, 1..table capacity.
//  CreatedAt  – creation timestamp (UTC).
type Reservation struct {
    ID         uint64     `json:"id"`               // reservations.id
    UserID     uint64     `json:"user_id"`          // reservations.user_id
    TableID    uint64     `json:"table_id"`         // reservations.table_id
    Date       string     `json:"reservation_date"` // reservations.reservation_date
    Period     TimePeriod `json:"time_period"`      // reservations.time_period
    Name       string     `json:"name"`             // reservations.name
    Phone      string     `json:"phone"`            // reservations.phone
    PaymentRef string     `json:"-"`                // reservations.payment_ref
    Guests     int        `json:"guests"`           // reservations.guests
    CreatedAt  time.Time  `json:"created_at"`       // reservations.created_at
}

// Slot returns the key of the slot this reservation occupies.
func (r Reservation) Slot() SlotKey {
    return SlotKey{TableID: r.TableID, Date: r.Date, Period: r.Period}
}
