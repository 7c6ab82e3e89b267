package services

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

// ShiftFilter narrows a shift listing. Empty fields match everything; From
// and To are inclusive YYYY-MM-DD bounds.
type ShiftFilter struct {
	From  string
	To    string
	User  string
	Site  string
	State model.ShiftState
}

// Validate checks the filter's dates and state
func (f ShiftFilter) Validate() error {
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := parseDate(d); err != nil {
			return err
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return fmt.Errorf("from date %s is after to date %s", f.From, f.To)
	}
	if f.State != "" && !f.State.IsValid() {
		return fmt.Errorf("invalid state %q", f.State)
	}
	return nil
}

// Match reports whether a shift passes the filter
func (f ShiftFilter) Match(shift db.Shift) bool {
	// YYYY-MM-DD compares chronologically as a string
	if f.From != "" && shift.Date < f.From {
		return false
	}
	if f.To != "" && shift.Date > f.To {
		return false
	}
	if f.User != "" && shift.User != f.User {
		return false
	}
	if f.Site != "" && shift.Site != f.Site {
		return false
	}
	switch f.State {
	case model.ShiftStateOpen:
		return shift.IsOpen()
	case model.ShiftStateClosed:
		return !shift.IsOpen()
	}
	return true
}

// ListShifts returns the shifts matching filter in storage order
func ListShifts(ctx context.Context, store db.ShiftReader, logger *zap.Logger, filter ShiftFilter) ([]db.Shift, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	shifts, err := store.GetShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shifts: %w", err)
	}

	matched := make([]db.Shift, 0, len(shifts))
	for _, shift := range shifts {
		if filter.Match(shift) {
			matched = append(matched, shift)
		}
	}

	logger.Debug("Listed shifts",
		zap.Int("total", len(shifts)),
		zap.Int("matched", len(matched)),
		zap.String("from", filter.From),
		zap.String("to", filter.To),
		zap.String("user", filter.User),
		zap.String("site", filter.Site),
		zap.String("state", string(filter.State)))

	return matched, nil
}

// PayPeriodContaining returns the [start, end) pay period around day.
// The periods are the gaps between occurrences of an RFC 5545 rule such as
// "FREQ=MONTHLY;BYMONTHDAY=1,16". A rule without DTSTART is anchored at
// midnight one year before day, which only matters for rules with an INTERVAL.
func PayPeriodContaining(rule string, day time.Time) (time.Time, time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid pay period rule: %w", err)
	}

	if r.OrigOptions.Dtstart.IsZero() {
		anchor := time.Date(day.Year()-1, day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		r.DTStart(anchor)
	}

	start := r.Before(day, true)
	if start.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("pay period rule has no occurrence on or before %s", day.Format(model.DateLayout))
	}
	end := r.After(start, false)
	if end.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("pay period rule has no occurrence after %s", start.Format(model.DateLayout))
	}
	return start, end, nil
}

// PayPeriodFilter narrows the filter's date range to the pay period
// containing day. An explicit From or To is kept when it lies inside the
// period; a range that does not overlap the period is an error.
func PayPeriodFilter(filter ShiftFilter, rule string, day time.Time) (ShiftFilter, error) {
	if err := filter.Validate(); err != nil {
		return filter, err
	}
	start, end, err := PayPeriodContaining(rule, day)
	if err != nil {
		return filter, err
	}

	first := start.Format(model.DateLayout)
	last := end.AddDate(0, 0, -1).Format(model.DateLayout)
	if filter.From < first {
		filter.From = first
	}
	if filter.To == "" || filter.To > last {
		filter.To = last
	}
	if filter.From > filter.To {
		return filter, fmt.Errorf("date range does not overlap pay period %s to %s", first, last)
	}
	return filter, nil
}
