package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-ledger/internal/config"
	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

// StartShiftRequest identifies the shift being opened
type StartShiftRequest struct {
	Date      string // YYYY-MM-DD, the shift's logical day
	User      string
	Site      string
	StartTime model.Clock
}

// StartShift opens a shift for (date, user, site).
// It re-reads the ledger and fails with model.ErrAlreadyOpen when an open
// shift already exists for the same key; otherwise it appends a new row with
// the rounded start time. Two concurrent calls can both pass the check; the
// store offers no lock to prevent it.
func StartShift(ctx context.Context, store db.ShiftStore, cfg *config.Config, logger *zap.Logger, req StartShiftRequest) (*db.Shift, error) {
	if err := validateShiftKey(cfg, req.Date, req.User, req.Site); err != nil {
		return nil, err
	}

	logger.Debug("Starting shift",
		zap.String("date", req.Date),
		zap.String("user", req.User),
		zap.String("site", req.Site),
		zap.Stringer("start_time", req.StartTime))

	shifts, err := store.GetShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shifts: %w", err)
	}

	if existing := findOpenShift(shifts, req.Date, req.User, req.Site); existing != nil {
		logger.Debug("Open shift already exists", zap.Int("row", existing.Row))
		return nil, fmt.Errorf("%w: %s at %s on %s since %s",
			model.ErrAlreadyOpen, req.User, req.Site, req.Date, existing.StartTime)
	}

	shift := &db.Shift{
		Date:         req.Date,
		User:         req.User,
		Site:         req.Site,
		StartTime:    req.StartTime.String(),
		RoundedStart: model.RoundClock(req.StartTime).String(),
	}

	if err := store.InsertShift(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to insert shift: %w", err)
	}

	logger.Info("Shift started",
		zap.String("user", shift.User),
		zap.String("site", shift.Site),
		zap.String("start_time", shift.StartTime),
		zap.String("rounded_start", shift.RoundedStart))

	return shift, nil
}

// validateShiftKey checks the (date, user, site) triple identifying a shift
func validateShiftKey(cfg *config.Config, date, user, site string) error {
	if _, err := parseDate(date); err != nil {
		return err
	}
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("user is required")
	}
	if !cfg.IsSite(site) {
		return fmt.Errorf("%w: %q", model.ErrUnknownSite, site)
	}
	return nil
}
