package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-ledger/internal/config"
	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

// CloseShiftRequest identifies the open shift and when it ended
type CloseShiftRequest struct {
	Date      string // logical day of the shift being closed
	User      string
	Site      string
	CloseDate string // calendar day the shift ended; defaults to Date
	EndTime   model.Clock
}

// CloseShift closes the open shift for (date, user, site).
// The ledger is re-read and scanned in storage order; the first matching row
// without a close is updated in place, so if duplicate opens slipped in the
// earliest one is closed first. Fails with model.ErrNoOpenShift when nothing
// matches.
func CloseShift(ctx context.Context, store db.ShiftStore, cfg *config.Config, logger *zap.Logger, req CloseShiftRequest) (*db.Shift, error) {
	if err := validateShiftKey(cfg, req.Date, req.User, req.Site); err != nil {
		return nil, err
	}

	closeDate := req.CloseDate
	if closeDate == "" {
		closeDate = req.Date
	}
	if _, err := parseDate(closeDate); err != nil {
		return nil, err
	}

	logger.Debug("Closing shift",
		zap.String("date", req.Date),
		zap.String("user", req.User),
		zap.String("site", req.Site),
		zap.String("close_date", closeDate),
		zap.Stringer("end_time", req.EndTime))

	shifts, err := store.GetShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shifts: %w", err)
	}

	open := findOpenShift(shifts, req.Date, req.User, req.Site)
	if open == nil {
		return nil, fmt.Errorf("%w: %s at %s on %s", model.ErrNoOpenShift, req.User, req.Site, req.Date)
	}

	closed := *open
	closed.CloseDate = closeDate
	closed.CloseTime = req.EndTime.String()
	closed.RoundedEnd = model.RoundClock(req.EndTime).String()

	if err := store.CloseShift(ctx, closed.Row, closed.CloseDate, closed.CloseTime, closed.RoundedEnd); err != nil {
		return nil, fmt.Errorf("failed to close shift: %w", err)
	}

	logger.Info("Shift closed",
		zap.String("user", closed.User),
		zap.String("site", closed.Site),
		zap.Int("row", closed.Row),
		zap.String("close_time", closed.CloseTime),
		zap.String("rounded_end", closed.RoundedEnd))

	return &closed, nil
}
