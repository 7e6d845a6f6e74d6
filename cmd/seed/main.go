// Command seed loads demo accounts and reservations into the configured
// database.  It is safe to run repeatedly: existing users and booked slots
// are skipped.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/logger"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/service"
)

type demoUser struct {
	username, nickname, password, role string
}

var demoUsers = []demoUser{
	{"testuser1", "test1", "password123", model.RoleCustomer},
	{"testuser2", "test2", "password456", model.RoleCustomer},
	{"admin", "administrator", "admin123", model.RoleStaff},
}

type demoReservation struct {
	username  string
	tableID   uint64
	dayOffset int
	period    string
	name      string
	phone     string
	card      string
	guests    int
}

var demoReservations = []demoReservation{
	{"testuser1", 1, 1, "lunch", "Kim Bungi", "010-1234-5678", "1234-5678-9012-3456", 2},
	{"testuser1", 2, 1, "dinner", "Lee Bungi", "010-9876-5432", "9876-5432-1098-7654", 4},
	{"testuser2", 3, 2, "lunch", "Park Bungi", "010-5555-6666", "5555-6666-7777-8888", 3},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("dev", "info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	layout, err := config.LoadTableLayout(cfg.TablesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load table layout")
	}
	if _, err := database.SeedTables(ctx, db, layout); err != nil {
		log.Fatal().Err(err).Msg("seed tables")
	}

	users := repository.NewUserRepo(db)
	svc := service.NewReservationService(repository.NewTableRepo(db), repository.NewReservationRepo(db), service.ReservationOptions{
		Location:    cfg.Location,
		HorizonDays: cfg.HorizonDays,
		Log:         log,
	})
	if err := seedDemo(ctx, users, svc, cfg.BcryptCost, log); err != nil {
		log.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
	log.Info().Msg("demo data loaded")
}

// seedDemo creates the demo accounts and books their reservations relative
// to today.
func seedDemo(ctx context.Context, users *repository.UserRepo, svc *service.ReservationService, cost int, log zerolog.Logger) error {
	ids := make(map[string]uint64, len(demoUsers))
	for _, du := range demoUsers {
		u, err := users.Create(ctx, du.username, du.nickname, du.password, du.role, cost)
		if errors.Is(err, repository.ErrDuplicate) {
			existing, gerr := users.GetByUsername(ctx, du.username)
			if gerr != nil {
				// nickname taken by a different account
				log.Warn().Str("username", du.username).Msg("user exists with other credentials, skipped")
				continue
			}
			ids[du.username] = existing.ID
			log.Info().Str("username", du.username).Msg("user already exists")
			continue
		}
		if err != nil {
			return err
		}
		ids[du.username] = u.ID
		log.Info().Str("username", du.username).Str("role", du.role).Msg("user added")
	}

	today, err := time.ParseInLocation(service.DateLayout, svc.Today(), time.UTC)
	if err != nil {
		return err
	}
	for _, dr := range demoReservations {
		uid, ok := ids[dr.username]
		if !ok {
			continue
		}
		date := today.AddDate(0, 0, dr.dayOffset).Format(service.DateLayout)
		_, err := svc.Book(ctx, service.BookRequest{
			UserID: uid, TableID: dr.tableID, Date: date, Period: dr.period,
			Guests: dr.guests, Name: dr.name, Phone: dr.phone, PaymentRef: dr.card,
		})
		switch {
		case errors.Is(err, service.ErrSlotUnavailable):
			log.Info().Uint64("table_id", dr.tableID).Str("date", date).Str("period", dr.period).Msg("slot already booked")
		case err != nil:
			return err
		default:
			log.Info().Uint64("table_id", dr.tableID).Str("date", date).Str("period", dr.period).Msg("reservation added")
		}
	}
	total, err := users.Count(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("users", total).Msg("accounts in database")
	return nil
}
