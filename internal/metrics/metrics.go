package metrics

import (
    "net/http"
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "table_reservation"

var (
    once sync.Once

    reservationCreated = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "reservation_created_total",
            Help:      "Count of reservations created by time period.",
        },
        []string{"time_period"},
    )

    slotConflicts = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "slot_conflict_total",
            Help:      "Count of booking attempts rejected because the slot was taken.",
        },
    )

    reservationCancelled = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "reservation_cancelled_total",
            Help:      "Count of reservations cancelled by users.",
        },
    )

    cancelRejected = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "cancel_rejected_total",
            Help:      "Count of cancellation attempts rejected by reason.",
        },
        []string{"reason"},
    )

    rateLimited = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "rate_limited_total",
            Help:      "Count of requests answered with 429.",
        },
    )
)

// Register registers metrics (idempotent).
func Register() {
    once.Do(func() {
        prometheus.MustRegister(reservationCreated, slotConflicts, reservationCancelled, cancelRejected, rateLimited)
    })
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
    Register()
    return promhttp.Handler()
}

func IncReservationCreated(period string) {
    reservationCreated.WithLabelValues(period).Inc()
}

func IncSlotConflict() {
    slotConflicts.Inc()
}

func IncReservationCancelled() {
    reservationCancelled.Inc()
}

func IncCancelRejected(reason string) {
    cancelRejected.WithLabelValues(reason).Inc()
}

func IncRateLimited() {
    rateLimited.Inc()
}
