package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/service"
)

func TestSeedDemoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(ctx, db, database.DriverSQLite))
	_, err = database.SeedTables(ctx, db, model.DefaultLayout())
	require.NoError(t, err)

	users := repository.NewUserRepo(db)
	svc := service.NewReservationService(repository.NewTableRepo(db), repository.NewReservationRepo(db), service.ReservationOptions{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) },
		Log:      zerolog.Nop(),
	})

	require.NoError(t, seedDemo(ctx, users, svc, 4, zerolog.Nop()))
	var out bytes.Buffer
	require.NoError(t, seedDemo(ctx, users, svc, 4, zerolog.New(&out)))
	assert.Contains(t, out.String(), `"users":3`)

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	admin, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, admin.Role)

	day, err := svc.ListByDate(ctx, "2026-10-20")
	require.NoError(t, err)
	assert.Len(t, day, 2)
	day, err = svc.ListByDate(ctx, "2026-10-21")
	require.NoError(t, err)
	assert.Len(t, day, 1)
}
