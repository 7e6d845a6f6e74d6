package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/logger"
	"github.com/iliyamo/table-reservation/internal/metrics"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/router"
	"github.com/iliyamo/table-reservation/internal/service"
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		bootLog := logger.New("dev", "info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		return err
	}
	layout, err := config.LoadTableLayout(cfg.TablesFile)
	if err != nil {
		return err
	}
	if n, err := database.SeedTables(ctx, db, layout); err != nil {
		return err
	} else if n > 0 {
		log.Info().Int("tables", n).Msg("seeded table layout")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn().Msg("redis unavailable: in-process rate limiting, no response cache")
	} else {
		defer rdb.Close()
	}

	var publisher service.EventPublisher = queue.NopPublisher{}
	if cfg.RabbitEnabled {
		publisher = queue.NewAMQPPublisher(cfg.RabbitURL, log)
		go func() {
			err := queue.StartReservationConsumer(ctx, cfg.RabbitURL, cfg.EventLogPath, log)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("reservation consumer stopped")
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tables := repository.NewTableRepo(db)
	reservations := repository.NewReservationRepo(db)

	authSvc := service.NewAuthService(users, tokens, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
		BcryptCost: cfg.BcryptCost,
	}, log)
	reserveSvc := service.NewReservationService(tables, reservations, service.ReservationOptions{
		Location:    cfg.Location,
		HorizonDays: cfg.HorizonDays,
		Publisher:   publisher,
		Log:         log,
	})

	metrics.Register()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))

	router.Register(e, router.Deps{
		JWTSecret:    cfg.JWTSecret,
		Auth:         handler.NewAuthHandler(cfg, authSvc, log),
		Reservations: handler.NewReservationHandler(reserveSvc, log),
		Staff:        handler.NewStaffHandler(reserveSvc, log),
		Health:       handler.NewHealthHandler(db, cfg.HorizonDays),
		Limiter:      middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		TableCache:   middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("db", cfg.DBDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
