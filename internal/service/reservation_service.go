package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/metrics"
    "github.com/iliyamo/table-reservation/internal/model"
    "github.com/iliyamo/table-reservation/internal/queue"
    "github.com/iliyamo/table-reservation/internal/repository"
)

// DateLayout is the wire and storage format of reservation dates.
const DateLayout = "2006-01-02"

// EventPublisher delivers reservation events after commit.  Delivery is
// best effort: a failure is logged and never undoes the reservation.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// ReservationOptions configures ReservationService.  Zero values fall back
// to the local zone, a 30 day horizon, the wall clock and no publishing.
type ReservationOptions struct {
    Location    *time.Location
    HorizonDays int
    Now         func() time.Time
    Publisher   EventPublisher
    Log         zerolog.Logger
}

// ReservationService owns availability, booking and cancellation.
type ReservationService struct {
    tables       *repository.TableRepo
    reservations *repository.ReservationRepo
    publisher    EventPublisher
    log          zerolog.Logger
    loc          *time.Location
    horizonDays  int
    now          func() time.Time
}

func NewReservationService(tables *repository.TableRepo, reservations *repository.ReservationRepo, opts ReservationOptions) *ReservationService {
    s := &ReservationService{
        tables:       tables,
        reservations: reservations,
        publisher:    opts.Publisher,
        log:          opts.Log,
        loc:          opts.Location,
        horizonDays:  opts.HorizonDays,
        now:          opts.Now,
    }
    if s.loc == nil {
        s.loc = time.Local
    }
    if s.horizonDays == 0 {
        s.horizonDays = 30
    }
    if s.now == nil {
        s.now = time.Now
    }
    if s.publisher == nil {
        s.publisher = queue.NopPublisher{}
    }
    return s
}

// BookRequest is the input of Book.  PaymentRef is stored as given and
// never validated or charged.
type BookRequest struct {
    UserID     uint64
    TableID    uint64
    Date       string
    Period     string
    Guests     int
    Name       string
    Phone      string
    PaymentRef string
}

// Availability is the status of every table for one date and period.
type Availability struct {
    Date   string                      `json:"date"`
    Period model.TimePeriod            `json:"time_period"`
    Status map[uint64]model.SlotStatus `json:"status"`
}

// Today returns the current calendar date in the booking zone.
func (s *ReservationService) Today() string {
    return s.now().In(s.loc).Format(DateLayout)
}

// HorizonDays is how many days past today a slot can be booked.
func (s *ReservationService) HorizonDays() int { return s.horizonDays }

// Tables lists the dining room layout.
func (s *ReservationService) Tables(ctx context.Context) ([]model.Table, error) {
    return s.tables.List(ctx)
}

// Availability reports available or booked for every registered table.
func (s *ReservationService) Availability(ctx context.Context, date, period string) (Availability, error) {
    day, err := s.bookableDate(date)
    if err != nil {
        return Availability{}, err
    }
    p, err := parsePeriod(period)
    if err != nil {
        return Availability{}, err
    }
    tables, err := s.tables.List(ctx)
    if err != nil {
        return Availability{}, fmt.Errorf("list tables: %w", err)
    }
    booked, err := s.reservations.BookedTableIDs(ctx, day, p)
    if err != nil {
        return Availability{}, fmt.Errorf("booked tables: %w", err)
    }
    status := make(map[uint64]model.SlotStatus, len(tables))
    for _, t := range tables {
        status[t.ID] = model.SlotAvailable
        if booked[t.ID] {
            status[t.ID] = model.SlotBooked
        }
    }
    return Availability{Date: day, Period: p, Status: status}, nil
}

// Book reserves one slot.  The availability check and the insert run in
// one transaction and the unique slot key settles races: of several
// concurrent requests for a free slot exactly one succeeds and the others
// get ErrSlotUnavailable.
func (s *ReservationService) Book(ctx context.Context, req BookRequest) (model.Reservation, error) {
    res, err := s.validateBooking(ctx, req)
    if err != nil {
        return model.Reservation{}, err
    }

    tx, err := s.reservations.DB().BeginTx(ctx, nil)
    if err != nil {
        return model.Reservation{}, fmt.Errorf("begin: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    taken, err := s.reservations.SlotTakenTx(ctx, tx, res.Slot())
    if err != nil {
        return model.Reservation{}, fmt.Errorf("check slot: %w", err)
    }
    if taken {
        return model.Reservation{}, s.conflict(res)
    }
    if err := s.reservations.CreateTx(ctx, tx, &res); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return model.Reservation{}, s.conflict(res)
        }
        return model.Reservation{}, fmt.Errorf("create reservation: %w", err)
    }
    if err := tx.Commit(); err != nil {
        return model.Reservation{}, fmt.Errorf("commit: %w", err)
    }
    committed = true

    metrics.IncReservationCreated(string(res.Period))
    s.log.Info().
        Uint64("reservation_id", res.ID).
        Uint64("user_id", res.UserID).
        Str("slot", res.Slot().String()).
        Int("guests", res.Guests).
        Msg("reservation created")
    s.publish(ctx, queue.EventReservationCreated, res)
    return res, nil
}

func (s *ReservationService) conflict(res model.Reservation) error {
    metrics.IncSlotConflict()
    s.log.Info().Uint64("user_id", res.UserID).Str("slot", res.Slot().String()).Msg("slot unavailable")
    return ErrSlotUnavailable
}

func (s *ReservationService) validateBooking(ctx context.Context, req BookRequest) (model.Reservation, error) {
    res := model.Reservation{
        UserID:     req.UserID,
        TableID:    req.TableID,
        Name:       strings.TrimSpace(req.Name),
        Phone:      strings.TrimSpace(req.Phone),
        PaymentRef: strings.TrimSpace(req.PaymentRef),
        Guests:     req.Guests,
    }
    switch {
    case req.UserID == 0:
        return res, ErrAuthenticationRequired
    case req.TableID == 0:
        return res, invalid("table_id", "is required")
    case res.Name == "":
        return res, invalid("name", "is required")
    case res.Phone == "":
        return res, invalid("phone", "is required")
    case res.PaymentRef == "":
        return res, invalid("credit_card", "is required")
    case res.Guests < 1:
        return res, invalid("guests", "must be at least 1")
    }

    day, err := s.bookableDate(req.Date)
    if err != nil {
        return res, err
    }
    res.Date = day
    if res.Period, err = parsePeriod(req.Period); err != nil {
        return res, err
    }

    table, err := s.tables.GetByID(ctx, req.TableID)
    if errors.Is(err, repository.ErrTableNotFound) {
        return res, fmt.Errorf("table %d: %w", req.TableID, ErrNotFound)
    }
    if err != nil {
        return res, fmt.Errorf("load table: %w", err)
    }
    if res.Guests > table.Capacity {
        return res, invalid("guests", fmt.Sprintf("table %d seats at most %d", table.ID, table.Capacity))
    }
    res.CreatedAt = s.now().UTC()
    return res, nil
}

// Cancel deletes a reservation owned by userID.  Reservations dated today
// or earlier cannot be cancelled.  A reservation that does not exist and
// one owned by another user both yield ErrNotFound.
func (s *ReservationService) Cancel(ctx context.Context, userID, reservationID uint64) error {
    if userID == 0 {
        return ErrAuthenticationRequired
    }
    tx, err := s.reservations.DB().BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := s.reservations.GetForUserTx(ctx, tx, reservationID, userID)
    if errors.Is(err, sql.ErrNoRows) {
        metrics.IncCancelRejected("not_found")
        return ErrNotFound
    }
    if err != nil {
        return fmt.Errorf("load reservation: %w", err)
    }
    // dates are YYYY-MM-DD so string order is calendar order
    if res.Date <= s.Today() {
        metrics.IncCancelRejected("same_day")
        return ErrSameDayLockout
    }
    deleted, err := s.reservations.DeleteTx(ctx, tx, res.ID)
    if err != nil {
        return fmt.Errorf("delete reservation: %w", err)
    }
    if !deleted {
        return ErrNotFound
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit: %w", err)
    }
    committed = true

    metrics.IncReservationCancelled()
    s.log.Info().
        Uint64("reservation_id", res.ID).
        Uint64("user_id", userID).
        Str("slot", res.Slot().String()).
        Msg("reservation cancelled")
    s.publish(ctx, queue.EventReservationCancelled, res)
    return nil
}

// ListForUser returns the user's reservations, earliest first.
func (s *ReservationService) ListForUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    if userID == 0 {
        return nil, ErrAuthenticationRequired
    }
    return s.reservations.ListByUser(ctx, userID)
}

// ListByDate returns every reservation on date.  It is not limited to the
// booking horizon so staff can look back at past days.
func (s *ReservationService) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
    day, err := parseDate(date)
    if err != nil {
        return nil, err
    }
    return s.reservations.ListByDate(ctx, day)
}

func (s *ReservationService) publish(ctx context.Context, typ string, res model.Reservation) {
    ev := queue.NewReservationEvent(typ, res, s.now())
    pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
    defer cancel()
    if err := s.publisher.Publish(pctx, ev); err != nil {
        s.log.Warn().Err(err).Str("event_id", ev.EventID).Str("type", typ).Msg("publish reservation event failed")
    }
}

// bookableDate parses date and checks it lies in [today, today+horizon].
func (s *ReservationService) bookableDate(date string) (string, error) {
    day, err := parseDate(date)
    if err != nil {
        return "", err
    }
    today, _ := time.ParseInLocation(DateLayout, s.Today(), time.UTC)
    d, _ := time.ParseInLocation(DateLayout, day, time.UTC)
    if d.Before(today) {
        return "", invalid("reservation_date", "must not be in the past")
    }
    if d.After(today.AddDate(0, 0, s.horizonDays)) {
        return "", invalid("reservation_date", fmt.Sprintf("must be within %d days", s.horizonDays))
    }
    return day, nil
}

func parseDate(date string) (string, error) {
    date = strings.TrimSpace(date)
    if date == "" {
        return "", invalid("reservation_date", "is required")
    }
    d, err := time.Parse(DateLayout, date)
    if err != nil {
        return "", invalid("reservation_date", "must be YYYY-MM-DD")
    }
    return d.Format(DateLayout), nil
}

func parsePeriod(period string) (model.TimePeriod, error) {
    if strings.TrimSpace(period) == "" {
        return "", invalid("time_period", "is required")
    }
    p, err := model.ParseTimePeriod(period)
    if err != nil {
        return "", invalid("time_period", "must be lunch or dinner")
    }
    return p, nil
}
