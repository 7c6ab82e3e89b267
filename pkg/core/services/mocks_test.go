package services

import (
	"context"
	"testing"

	"github.com/jakechorley/shift-ledger/internal/config"
	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

// mockStore is an in-memory db.Database. Row numbers follow the sheet
// convention: the first record lives on row 2.
type mockStore struct {
	shifts []db.Shift
	rules  []db.OvertimeRule

	getShiftsErr error
	insertErr    error
	closeErr     error
	rulesErr     error
	// setOvertimeErr fails SetOvertime once setOvertimeOK writes succeeded
	setOvertimeErr error
	setOvertimeOK  int

	setOvertimeCalls int
	closeCalls       int
}

func (m *mockStore) GetShifts(ctx context.Context) ([]db.Shift, error) {
	if m.getShiftsErr != nil {
		return nil, m.getShiftsErr
	}
	out := make([]db.Shift, len(m.shifts))
	copy(out, m.shifts)
	return out, nil
}

func (m *mockStore) InsertShift(ctx context.Context, shift *db.Shift) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	shift.Row = len(m.shifts) + 2
	m.shifts = append(m.shifts, *shift)
	return nil
}

func (m *mockStore) CloseShift(ctx context.Context, row int, closeDate, closeTime, roundedEnd string) error {
	m.closeCalls++
	if m.closeErr != nil {
		return m.closeErr
	}
	s := m.row(row)
	if s == nil {
		return model.ErrNoOpenShift
	}
	s.CloseDate = closeDate
	s.CloseTime = closeTime
	s.RoundedEnd = roundedEnd
	return nil
}

func (m *mockStore) GetOvertimeRules(ctx context.Context) ([]db.OvertimeRule, error) {
	if m.rulesErr != nil {
		return nil, m.rulesErr
	}
	return m.rules, nil
}

func (m *mockStore) SetOvertime(ctx context.Context, row int, expected, overtime string) error {
	if m.setOvertimeErr != nil && m.setOvertimeCalls >= m.setOvertimeOK {
		return m.setOvertimeErr
	}
	m.setOvertimeCalls++
	s := m.row(row)
	if s == nil {
		return model.ErrStoreUnavailable
	}
	s.Expected = expected
	s.Overtime = overtime
	return nil
}

func (m *mockStore) row(row int) *db.Shift {
	for i := range m.shifts {
		if m.shifts[i].Row == row {
			return &m.shifts[i]
		}
	}
	return nil
}

// addShift appends a record and assigns its row number
func (m *mockStore) addShift(s db.Shift) {
	s.Row = len(m.shifts) + 2
	m.shifts = append(m.shifts, s)
}

var _ db.Database = (*mockStore)(nil)

func testConfig() *config.Config {
	return &config.Config{
		SpreadsheetID: "sheet-id",
		Timezone:      "America/Costa_Rica",
		Sites:         []string{"Bodega Central", "Bodega Norte"},
	}
}

func clock(t testing.TB, s string) model.Clock {
	t.Helper()
	c, err := model.ParseClock(s)
	if err != nil {
		t.Fatalf("bad clock %q: %v", s, err)
	}
	return c
}
