package postgres

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_b.sql": {Data: []byte("SELECT 2")},
		"migrations/001_a.sql": {Data: []byte("SELECT 1")},
		"migrations/003_c.sql": {Data: []byte("SELECT 3")},
		"migrations/README.md": {Data: []byte("notes")},
		"migrations/old/x.sql": {Data: []byte("SELECT 0")},
	}

	pending, err := pendingMigrations(fsys, []string{"002_b.sql"})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "003_c.sql"}, pending)

	pending, err = pendingMigrations(fsys, []string{"001_a.sql", "002_b.sql", "003_c.sql"})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEmbeddedMigrations(t *testing.T) {
	pending, err := pendingMigrations(migrationsFS, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_shift.sql", "002_create_overtime_rule.sql"}, pending)
}

func TestRequireRow(t *testing.T) {
	assert.NoError(t, requireRow(pgconn.NewCommandTag("UPDATE 1"), 7, model.ErrStoreUnavailable))

	err := requireRow(pgconn.NewCommandTag("UPDATE 0"), 7, model.ErrStoreUnavailable)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "shift 7")
}

// TestShiftStore runs against a disposable database named by
// SHIFT_LEDGER_TEST_DATABASE_URL and is skipped without one
func TestShiftStore(t *testing.T) {
	url := os.Getenv("SHIFT_LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SHIFT_LEDGER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pg, err := NewDB(ctx, url)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.RunMigrations(ctx))
	// applying twice is a no-op
	require.NoError(t, pg.RunMigrations(ctx))

	_, err = pg.pool.Exec(ctx, `TRUNCATE shift, overtime_rule`)
	require.NoError(t, err)
	_, err = pg.pool.Exec(ctx, `INSERT INTO overtime_rule (rounded_start, hours) VALUES ('08:00:00', 8.5)`)
	require.NoError(t, err)

	shift := &db.Shift{Date: "2024-05-01", User: "ana", Site: "Bodega Central", StartTime: "08:03:00", RoundedStart: "08:00:00"}
	require.NoError(t, pg.InsertShift(ctx, shift))
	require.NotZero(t, shift.Row)

	require.NoError(t, pg.CloseShift(ctx, shift.Row, "2024-05-01", "17:20:00", "17:30:00"))
	require.NoError(t, pg.SetOvertime(ctx, shift.Row, "08:30", "01:00"))

	shifts, err := pg.GetShifts(ctx)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "2024-05-01", shifts[0].Date)
	assert.Equal(t, "2024-05-01", shifts[0].CloseDate)
	assert.Equal(t, "17:30:00", shifts[0].RoundedEnd)
	assert.Equal(t, "01:00", shifts[0].Overtime)
	assert.False(t, shifts[0].IsOpen())

	rules, err := pg.GetOvertimeRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []db.OvertimeRule{{RoundedStart: "08:00:00", Hours: "8.50"}}, rules)

	err = pg.CloseShift(ctx, shift.Row+1000, "2024-05-01", "17:00:00", "17:00:00")
	assert.ErrorIs(t, err, model.ErrNoOpenShift)

	err = pg.SetOvertime(ctx, shift.Row+1000, "08:30", "00:00")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}
