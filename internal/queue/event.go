// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/table-reservation/internal/model"
)

// ReservationQueueName is the durable queue reservation events are routed to.
const ReservationQueueName = "reservation.events"

// Event types carried in ReservationEvent.Type.
const (
    EventReservationCreated   = "reservation.created"
    EventReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published after a booking or a cancellation has been
// committed.  It carries enough information for downstream consumers to
// log or trigger analytics without querying the primary database.  Contact
// details and the payment reference are deliberately left out.
type ReservationEvent struct {
    EventID       string `json:"event_id"`
    Type          string `json:"type"`
    ReservationID uint64 `json:"reservation_id"`
    UserID        uint64 `json:"user_id"`
    TableID       uint64 `json:"table_id"`
    Date          string `json:"reservation_date"`
    Period        string `json:"time_period"`
    Guests        int    `json:"guests"`
    OccurredAt    string `json:"occurred_at"`
}

// NewReservationEvent builds an event of the given type for res.
func NewReservationEvent(typ string, res model.Reservation, at time.Time) ReservationEvent {
    return ReservationEvent{
        EventID:       uuid.NewString(),
        Type:          typ,
        ReservationID: res.ID,
        UserID:        res.UserID,
        TableID:       res.TableID,
        Date:          res.Date,
        Period:        string(res.Period),
        Guests:        res.Guests,
        OccurredAt:    at.UTC().Format(time.RFC3339),
    }
}
