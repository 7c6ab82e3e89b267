package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-ledger/internal/config"
	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

type memoryStore struct {
	shifts []db.Shift
	rules  []db.OvertimeRule
}

func (m *memoryStore) GetShifts(ctx context.Context) ([]db.Shift, error) {
	return append([]db.Shift(nil), m.shifts...), nil
}

func (m *memoryStore) InsertShift(ctx context.Context, shift *db.Shift) error {
	shift.Row = len(m.shifts) + 2
	m.shifts = append(m.shifts, *shift)
	return nil
}

func (m *memoryStore) CloseShift(ctx context.Context, row int, closeDate, closeTime, roundedEnd string) error {
	s := &m.shifts[row-2]
	s.CloseDate, s.CloseTime, s.RoundedEnd = closeDate, closeTime, roundedEnd
	return nil
}

func (m *memoryStore) GetOvertimeRules(ctx context.Context) ([]db.OvertimeRule, error) {
	return m.rules, nil
}

func (m *memoryStore) SetOvertime(ctx context.Context, row int, expected, overtime string) error {
	s := &m.shifts[row-2]
	s.Expected, s.Overtime = expected, overtime
	return nil
}

type passwordIsName struct{}

func (passwordIsName) Verify(ctx context.Context, user, password string) (model.Identity, error) {
	if user == "" || password != user {
		return model.Identity{}, model.ErrInvalidCredentials
	}
	role := model.RoleWorker
	if user == "jefe" {
		role = model.RoleAdmin
	}
	return model.Identity{User: user, Role: role}, nil
}

func newTestApp(t *testing.T) (*AppContext, *memoryStore) {
	t.Helper()
	cfg := &config.Config{
		SpreadsheetID: "sheet-id",
		Timezone:      "UTC",
		Sites:         []string{"Bodega Central", "Bodega Norte"},
		Users:         []config.User{{Name: "ana", PasswordHash: "unused", Role: "worker"}},
	}
	require.NoError(t, config.Validate(cfg))

	store := &memoryStore{}
	return &AppContext{
		Cfg:      cfg,
		Database: store,
		Verifier: passwordIsName{},
		Session:  model.NewSession(),
		Logger:   zap.NewNop(),
		Ctx:      context.Background(),
		Now:      func() time.Time { return time.Date(2024, 5, 1, 8, 3, 0, 0, time.UTC) },
		Getenv:   func(string) string { return "" },
	}, store
}

func newRoot(app *AppContext) *cobra.Command {
	root := &cobra.Command{Use: "shift-ledger", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(StartShiftCmd(app))
	root.AddCommand(CloseShiftCmd(app))
	root.AddCommand(ListShiftsCmd(app))
	root.AddCommand(ListSitesCmd(app))
	root.AddCommand(ComputeOvertimeCmd(app))
	root.AddCommand(InteractiveCmd(app))
	return root
}

func run(root *cobra.Command, input string, args ...string) (string, error) {
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestStartShift_RequiresLogin(t *testing.T) {
	app, store := newTestApp(t)

	_, err := run(newRoot(app), "", "startShift", "Bodega Central")

	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.Empty(t, store.shifts)
}

func TestStartShift_LogsInFromEnv(t *testing.T) {
	app, store := newTestApp(t)
	app.User = "ana"
	app.Getenv = func(key string) string {
		if key == PasswordEnv {
			return "ana"
		}
		return ""
	}

	out, err := run(newRoot(app), "", "startShift", "Bodega Central")
	require.NoError(t, err)

	assert.Contains(t, out, "Shift started")
	require.Len(t, store.shifts, 1)
	assert.Equal(t, "ana", store.shifts[0].User)
	assert.Equal(t, "08:00:00", store.shifts[0].RoundedStart)
}

func TestComputeOvertime_RequiresAdmin(t *testing.T) {
	app, _ := newTestApp(t)
	_, err := app.Login("ana", "ana")
	require.NoError(t, err)

	_, err = run(newRoot(app), "", "computeOvertime")

	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestInteractive_Session(t *testing.T) {
	app, store := newTestApp(t)
	input := strings.Join([]string{
		`startShift "Bodega Central"`, // not logged in yet
		"login ana",
		"ana",
		`startShift "Bodega Central"`,
		"whoami",
		"logout",
		"n", // cancel
		`closeShift "Bodega Central"`,
		"logout",
		"y",
		"whoami",
		"exit",
	}, "\n")

	out, err := run(newRoot(app), input, "interactive")
	require.NoError(t, err)

	assert.Contains(t, out, "log in from an interactive session")
	assert.Contains(t, out, "Logged in as ana (worker)")
	assert.Contains(t, out, "Shift started")
	assert.Contains(t, out, "Still logged in")
	assert.Contains(t, out, "Shift closed")
	assert.Contains(t, out, "ana logged out")
	assert.Contains(t, out, "Not logged in")
	assert.Contains(t, out, "Goodbye")

	require.Len(t, store.shifts, 1)
	assert.False(t, store.shifts[0].IsOpen())
	assert.Equal(t, model.SessionAnonymous, app.Session.State())
}

func TestInteractive_ExitAsksToLogOut(t *testing.T) {
	app, _ := newTestApp(t)
	input := strings.Join([]string{"login jefe", "jefe", "exit", "n", "quit", "yes"}, "\n")

	out, err := run(newRoot(app), input, "interactive")
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "Log out jefe? [y/N]"))
	assert.Contains(t, out, "Goodbye")
	assert.Equal(t, model.SessionAnonymous, app.Session.State())
}

func TestInteractive_BadLogin(t *testing.T) {
	app, _ := newTestApp(t)
	input := strings.Join([]string{"login ana", "wrong", "exit"}, "\n")

	out, err := run(newRoot(app), input, "interactive")
	require.NoError(t, err)

	assert.Contains(t, out, "Login failed")
	assert.Equal(t, model.SessionAnonymous, app.Session.State())
}

func TestListShifts_WorkerCannotReviewOthers(t *testing.T) {
	app, store := newTestApp(t)
	store.shifts = []db.Shift{
		{Row: 2, Date: "2024-05-01", User: "ana", Site: "Bodega Central", RoundedStart: "08:00:00"},
		{Row: 3, Date: "2024-05-01", User: "luis", Site: "Bodega Central", RoundedStart: "08:00:00"},
	}
	_, err := app.Login("ana", "ana")
	require.NoError(t, err)

	out, err := run(newRoot(app), "", "listShifts")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 shifts")

	_, err = run(newRoot(app), "", "listShifts", "--for", "luis")
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestListShifts_PeriodNarrowedByRange(t *testing.T) {
	app, store := newTestApp(t)
	app.Cfg.PayPeriod = "FREQ=MONTHLY;BYMONTHDAY=1,16"
	store.shifts = []db.Shift{
		{Row: 2, Date: "2024-05-01", User: "ana", Site: "Bodega Central", RoundedStart: "08:00:00"},
		{Row: 3, Date: "2024-05-12", User: "ana", Site: "Bodega Central", RoundedStart: "08:00:00"},
		{Row: 4, Date: "2024-05-20", User: "ana", Site: "Bodega Central", RoundedStart: "08:00:00"},
	}
	_, err := app.Login("ana", "ana")
	require.NoError(t, err)

	out, err := run(newRoot(app), "", "listShifts", "--period", "current", "--from", "2024-05-10")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 shifts")

	_, err = run(newRoot(app), "", "listShifts", "--period", "current", "--to", "2024-04-30")
	assert.Error(t, err)
}

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{line: "startShift Bodega", want: []string{"startShift", "Bodega"}},
		{line: `startShift "Bodega Central"`, want: []string{"startShift", "Bodega Central"}},
		{line: `listShifts --site 'Bodega Norte'  --state open`, want: []string{"listShifts", "--site", "Bodega Norte", "--state", "open"}},
		{line: `startShift "Bodega`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommandLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
