package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

// GetShifts retrieves all shift records in insertion order
func (d *DB) GetShifts(ctx context.Context) ([]db.Shift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, shift_date, user_name, site, start_time, close_date, close_time,
		       rounded_start, rounded_end, expected, overtime
		FROM shift
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query shifts: %w", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var shifts []db.Shift
	for rows.Next() {
		var s db.Shift
		var id int64
		var date time.Time
		var closeDate *time.Time
		if err := rows.Scan(&id, &date, &s.User, &s.Site, &s.StartTime, &closeDate, &s.CloseTime,
			&s.RoundedStart, &s.RoundedEnd, &s.Expected, &s.Overtime); err != nil {
			return nil, fmt.Errorf("%w: failed to scan shift: %w", model.ErrStoreUnavailable, err)
		}
		s.Row = int(id)
		s.Date = date.Format(model.DateLayout)
		if closeDate != nil {
			s.CloseDate = closeDate.Format(model.DateLayout)
		}
		shifts = append(shifts, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating shifts: %w", model.ErrStoreUnavailable, err)
	}

	return shifts, nil
}

// InsertShift inserts a new open shift and stores its id in shift.Row
func (d *DB) InsertShift(ctx context.Context, shift *db.Shift) error {
	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO shift (shift_date, user_name, site, start_time, rounded_start)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, shift.Date, shift.User, shift.Site, shift.StartTime, shift.RoundedStart).Scan(&id)
	if err != nil {
		return fmt.Errorf("%w: failed to insert shift: %w", model.ErrStoreUnavailable, err)
	}
	shift.Row = int(id)
	return nil
}

// CloseShift sets the close fields of one shift
func (d *DB) CloseShift(ctx context.Context, row int, closeDate, closeTime, roundedEnd string) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE shift SET close_date = $2, close_time = $3, rounded_end = $4 WHERE id = $1
	`, row, closeDate, closeTime, roundedEnd)
	if err != nil {
		return fmt.Errorf("%w: failed to close shift: %w", model.ErrStoreUnavailable, err)
	}
	return requireRow(tag, row, model.ErrNoOpenShift)
}

// GetOvertimeRules reads the overtime rule table
func (d *DB) GetOvertimeRules(ctx context.Context) ([]db.OvertimeRule, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT rounded_start, hours::text FROM overtime_rule ORDER BY rounded_start
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query overtime rules: %w", model.ErrRuleLookup, err)
	}
	defer rows.Close()

	var rules []db.OvertimeRule
	for rows.Next() {
		var r db.OvertimeRule
		if err := rows.Scan(&r.RoundedStart, &r.Hours); err != nil {
			return nil, fmt.Errorf("%w: failed to scan overtime rule: %w", model.ErrRuleLookup, err)
		}
		rules = append(rules, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating overtime rules: %w", model.ErrRuleLookup, err)
	}

	return rules, nil
}

// SetOvertime writes the expected length and overtime of one shift
func (d *DB) SetOvertime(ctx context.Context, row int, expected, overtime string) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE shift SET expected = $2, overtime = $3 WHERE id = $1
	`, row, expected, overtime)
	if err != nil {
		return fmt.Errorf("%w: failed to set overtime: %w", model.ErrStoreUnavailable, err)
	}
	return requireRow(tag, row, model.ErrStoreUnavailable)
}

// requireRow fails with kind when an update by id matched nothing, which
// means the shift was deleted after it was read
func requireRow(tag pgconn.CommandTag, row int, kind error) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: shift %d no longer exists", kind, row)
	}
	return nil
}

var _ db.Database = (*DB)(nil)
