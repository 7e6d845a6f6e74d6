package service

import (
    "context"
    "database/sql"
    "path/filepath"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/table-reservation/internal/database"
    "github.com/iliyamo/table-reservation/internal/model"
    "github.com/iliyamo/table-reservation/internal/queue"
    "github.com/iliyamo/table-reservation/internal/repository"
)

// 2026-10-19 10:00 in the booking zone
var fixedNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

type mockPublisher struct {
    mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev queue.ReservationEvent) error {
    args := m.Called(ctx, ev)
    return args.Error(0)
}

type fixture struct {
    db       *sql.DB
    users    *repository.UserRepo
    auth     *AuthService
    reserve  *ReservationService
    customer model.User
    other    model.User
}

func newFixture(t *testing.T, pub EventPublisher) *fixture {
    t.Helper()
    db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    ctx := context.Background()
    require.NoError(t, database.Migrate(ctx, db, database.DriverSQLite))
    _, err = database.SeedTables(ctx, db, model.DefaultLayout())
    require.NoError(t, err)

    users := repository.NewUserRepo(db)
    f := &fixture{
        db:    db,
        users: users,
        auth: NewAuthService(users, repository.NewTokenRepo(db), AuthConfig{
            JWTSecret:  "test-secret",
            AccessTTL:  30 * time.Minute,
            RefreshTTL: 24 * time.Hour,
            BcryptCost: 4,
        }, zerolog.Nop()),
        reserve: NewReservationService(repository.NewTableRepo(db), repository.NewReservationRepo(db), ReservationOptions{
            Location:    time.UTC,
            HorizonDays: 30,
            Now:         func() time.Time { return fixedNow },
            Publisher:   pub,
            Log:         zerolog.Nop(),
        }),
    }
    f.customer, err = f.auth.Signup(ctx, "testuser1", "tester one", "password1")
    require.NoError(t, err)
    f.other, err = f.auth.Signup(ctx, "testuser2", "tester two", "password2")
    require.NoError(t, err)
    return f
}

func (f *fixture) request(userID, tableID uint64, date string, period string, guests int) BookRequest {
    return BookRequest{
        UserID: userID, TableID: tableID, Date: date, Period: period, Guests: guests,
        Name: "Hong Gildong", Phone: "010-1111-2222", PaymentRef: "4111-1111-1111-1111",
    }
}

func (f *fixture) countReservations(t *testing.T) int {
    t.Helper()
    var n int
    require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM reservations`).Scan(&n))
    return n
}

func TestBookPublishesAndMarksSlotBooked(t *testing.T) {
    pub := &mockPublisher{}
    pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev queue.ReservationEvent) bool {
        return ev.Type == queue.EventReservationCreated && ev.TableID == 3
    })).Return(nil).Once()
    f := newFixture(t, pub)
    ctx := context.Background()

    res, err := f.reserve.Book(ctx, f.request(f.customer.ID, 3, "2026-10-20", "dinner", 4))
    require.NoError(t, err)
    assert.NotZero(t, res.ID)
    assert.Equal(t, model.Dinner, res.Period)
    pub.AssertExpectations(t)

    av, err := f.reserve.Availability(ctx, "2026-10-20", "dinner")
    require.NoError(t, err)
    assert.Len(t, av.Status, 10)
    assert.Equal(t, model.SlotBooked, av.Status[3])
    assert.Equal(t, model.SlotAvailable, av.Status[4])

    lunch, err := f.reserve.Availability(ctx, "2026-10-20", "점심")
    require.NoError(t, err)
    assert.Equal(t, model.SlotAvailable, lunch.Status[3])
}

func TestBookSecondRequestForSlotIsUnavailable(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()

    _, err := f.reserve.Book(ctx, f.request(f.customer.ID, 1, "2026-10-21", "lunch", 2))
    require.NoError(t, err)
    _, err = f.reserve.Book(ctx, f.request(f.other.ID, 1, "2026-10-21", "lunch", 2))
    assert.ErrorIs(t, err, ErrSlotUnavailable)
    assert.Equal(t, 1, f.countReservations(t))
}

func TestBookConcurrentSameSlotExactlyOneWins(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()

    const n = 8
    var wg sync.WaitGroup
    errs := make([]error, n)
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            uid := f.customer.ID
            if i%2 == 1 {
                uid = f.other.ID
            }
            _, errs[i] = f.reserve.Book(ctx, f.request(uid, 5, "2026-10-25", "dinner", 3))
        }(i)
    }
    wg.Wait()

    wins := 0
    for _, err := range errs {
        if err == nil {
            wins++
            continue
        }
        assert.ErrorIs(t, err, ErrSlotUnavailable)
    }
    assert.Equal(t, 1, wins)
    assert.Equal(t, 1, f.countReservations(t))

    av, err := f.reserve.Availability(ctx, "2026-10-25", "dinner")
    require.NoError(t, err)
    assert.Equal(t, model.SlotBooked, av.Status[5])
}

func TestBookValidation(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    uid := f.customer.ID

    cases := map[string]struct {
        req   BookRequest
        field string
    }{
        "over capacity": {f.request(uid, 1, "2026-10-20", "lunch", 5), "guests"},
        "zero guests":   {f.request(uid, 1, "2026-10-20", "lunch", 0), "guests"},
        "bad date":      {f.request(uid, 1, "20-10-2026", "lunch", 2), "reservation_date"},
        "past date":     {f.request(uid, 1, "2026-10-18", "lunch", 2), "reservation_date"},
        "past horizon":  {f.request(uid, 1, "2026-11-19", "lunch", 2), "reservation_date"},
        "bad period":    {f.request(uid, 1, "2026-10-20", "brunch", 2), "time_period"},
    }
    for name, tc := range cases {
        t.Run(name, func(t *testing.T) {
            _, err := f.reserve.Book(ctx, tc.req)
            require.ErrorIs(t, err, ErrValidation)
            var ve *ValidationError
            require.ErrorAs(t, err, &ve)
            assert.Equal(t, tc.field, ve.Field)
        })
    }

    blank := f.request(uid, 1, "2026-10-20", "lunch", 2)
    blank.Name = "   "
    _, err := f.reserve.Book(ctx, blank)
    assert.ErrorIs(t, err, ErrValidation)

    noCard := f.request(uid, 1, "2026-10-20", "lunch", 2)
    noCard.PaymentRef = ""
    _, err = f.reserve.Book(ctx, noCard)
    assert.ErrorIs(t, err, ErrValidation)

    _, err = f.reserve.Book(ctx, f.request(uid, 42, "2026-10-20", "lunch", 2))
    assert.ErrorIs(t, err, ErrNotFound)

    _, err = f.reserve.Book(ctx, f.request(0, 1, "2026-10-20", "lunch", 2))
    assert.ErrorIs(t, err, ErrAuthenticationRequired)

    assert.Zero(t, f.countReservations(t), "failed bookings must not write")
}

func TestBookHorizonBoundsInclusive(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()

    _, err := f.reserve.Book(ctx, f.request(f.customer.ID, 9, "2026-10-19", "dinner", 8))
    assert.NoError(t, err, "today is bookable")
    _, err = f.reserve.Book(ctx, f.request(f.customer.ID, 9, "2026-11-18", "dinner", 8))
    assert.NoError(t, err, "today+30 is bookable")
}

func TestCancelSameDayLockout(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()

    res, err := f.reserve.Book(ctx, f.request(f.customer.ID, 2, "2026-10-19", "dinner", 2))
    require.NoError(t, err)

    err = f.reserve.Cancel(ctx, f.customer.ID, res.ID)
    assert.ErrorIs(t, err, ErrSameDayLockout)
    assert.Equal(t, 1, f.countReservations(t))

    av, err := f.reserve.Availability(ctx, "2026-10-19", "dinner")
    require.NoError(t, err)
    assert.Equal(t, model.SlotBooked, av.Status[2])
}

func TestCancelFutureFreesSlot(t *testing.T) {
    pub := &mockPublisher{}
    pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
    f := newFixture(t, pub)
    ctx := context.Background()

    res, err := f.reserve.Book(ctx, f.request(f.customer.ID, 6, "2026-10-22", "lunch", 2))
    require.NoError(t, err)

    assert.ErrorIs(t, f.reserve.Cancel(ctx, f.other.ID, res.ID), ErrNotFound, "not the owner")
    assert.ErrorIs(t, f.reserve.Cancel(ctx, f.customer.ID, res.ID+100), ErrNotFound)

    require.NoError(t, f.reserve.Cancel(ctx, f.customer.ID, res.ID))
    av, err := f.reserve.Availability(ctx, "2026-10-22", "lunch")
    require.NoError(t, err)
    assert.Equal(t, model.SlotAvailable, av.Status[6])

    _, err = f.reserve.Book(ctx, f.request(f.other.ID, 6, "2026-10-22", "lunch", 2))
    assert.NoError(t, err, "slot is rebookable")

    pub.AssertNumberOfCalls(t, "Publish", 3)
    var types []string
    for _, c := range pub.Calls {
        types = append(types, c.Arguments.Get(1).(queue.ReservationEvent).Type)
    }
    assert.Equal(t, []string{queue.EventReservationCreated, queue.EventReservationCancelled, queue.EventReservationCreated}, types)
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
    pub := &mockPublisher{}
    pub.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)
    f := newFixture(t, pub)

    _, err := f.reserve.Book(context.Background(), f.request(f.customer.ID, 7, "2026-10-23", "dinner", 4))
    assert.NoError(t, err)
    assert.Equal(t, 1, f.countReservations(t))
}

func TestListForUserAndByDate(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()

    _, err := f.reserve.Book(ctx, f.request(f.customer.ID, 1, "2026-10-24", "dinner", 2))
    require.NoError(t, err)
    _, err = f.reserve.Book(ctx, f.request(f.customer.ID, 2, "2026-10-24", "lunch", 2))
    require.NoError(t, err)
    _, err = f.reserve.Book(ctx, f.request(f.other.ID, 3, "2026-10-24", "lunch", 2))
    require.NoError(t, err)

    mine, err := f.reserve.ListForUser(ctx, f.customer.ID)
    require.NoError(t, err)
    require.Len(t, mine, 2)
    assert.Equal(t, model.Lunch, mine[0].Period)

    day, err := f.reserve.ListByDate(ctx, "2026-10-24")
    require.NoError(t, err)
    assert.Len(t, day, 3)

    _, err = f.reserve.ListByDate(ctx, "yesterday")
    assert.ErrorIs(t, err, ErrValidation)
}

func TestAvailabilityValidation(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    _, err := f.reserve.Availability(ctx, "2026-12-31", "lunch")
    assert.ErrorIs(t, err, ErrValidation)
    _, err = f.reserve.Availability(ctx, "2026-10-20", "")
    assert.ErrorIs(t, err, ErrValidation)
}

func TestTodayUsesBookingZone(t *testing.T) {
    seoul := time.FixedZone("KST", 9*60*60)
    s := NewReservationService(nil, nil, ReservationOptions{
        Location: seoul,
        Now:      func() time.Time { return time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC) },
    })
    assert.Equal(t, "2026-10-20", s.Today())
    assert.Equal(t, 30, s.HorizonDays())
}

func TestSignupDuplicateAccount(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()

    _, err := f.auth.Signup(ctx, "testuser1", "fresh nick", "pw")
    assert.ErrorIs(t, err, ErrDuplicateAccount)
    _, err = f.auth.Signup(ctx, "fresh", "tester one", "pw")
    assert.ErrorIs(t, err, ErrDuplicateAccount)

    n, err := f.users.Count(ctx)
    require.NoError(t, err)
    assert.Equal(t, 2, n)

    _, err = f.auth.Signup(ctx, " ", "nick", "pw")
    assert.ErrorIs(t, err, ErrValidation)
}

func TestSignupPasswordByteLimit(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()

    // 30 runes but 90 bytes
    long := strings.Repeat("비", 30)
    _, err := f.auth.Signup(ctx, "hangul", "hangul nick", long)
    var verr *ValidationError
    require.ErrorAs(t, err, &verr)
    assert.Equal(t, "password", verr.Field)

    n, err := f.users.Count(ctx)
    require.NoError(t, err)
    assert.Equal(t, 2, n)

    // 24 runes, exactly 72 bytes
    u, err := f.auth.Signup(ctx, "hangul", "hangul nick", strings.Repeat("비", 24))
    require.NoError(t, err)
    assert.Equal(t, "hangul", u.Username)
    _, err = f.auth.Login(ctx, "hangul", strings.Repeat("비", 24))
    assert.NoError(t, err)
}

func TestLoginRefreshLogout(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()

    _, err := f.auth.Login(ctx, "testuser1", "wrong")
    assert.ErrorIs(t, err, ErrAuthenticationRequired)
    _, err = f.auth.Login(ctx, "nobody", "password1")
    assert.ErrorIs(t, err, ErrAuthenticationRequired)

    sess, err := f.auth.Login(ctx, " testuser1 ", "password1")
    require.NoError(t, err)
    assert.Equal(t, f.customer.ID, sess.User.ID)
    assert.NotEmpty(t, sess.Access.Token)

    next, err := f.auth.Refresh(ctx, sess.Refresh.Raw)
    require.NoError(t, err)
    assert.NotEqual(t, sess.Refresh.Raw, next.Refresh.Raw)

    _, err = f.auth.Refresh(ctx, sess.Refresh.Raw)
    assert.ErrorIs(t, err, ErrAuthenticationRequired, "rotated token is single use")

    require.NoError(t, f.auth.Logout(ctx, 0, next.Refresh.Raw))
    _, err = f.auth.Refresh(ctx, next.Refresh.Raw)
    assert.ErrorIs(t, err, ErrAuthenticationRequired)

    again, err := f.auth.Login(ctx, "testuser1", "password1")
    require.NoError(t, err)
    require.NoError(t, f.auth.Logout(ctx, f.customer.ID, ""))
    _, err = f.auth.Refresh(ctx, again.Refresh.Raw)
    assert.ErrorIs(t, err, ErrAuthenticationRequired)

    assert.ErrorIs(t, f.auth.Logout(ctx, 0, ""), ErrValidation)

    me, err := f.auth.Me(ctx, f.customer.ID)
    require.NoError(t, err)
    assert.Equal(t, "testuser1", me.Username)
    _, err = f.auth.Me(ctx, 9999)
    assert.ErrorIs(t, err, ErrNotFound)
}
