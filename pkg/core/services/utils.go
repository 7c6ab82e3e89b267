package services

import (
	"fmt"
	"time"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

// findOpenShift returns the first open shift for (date, user, site) in storage order
func findOpenShift(shifts []db.Shift, date, user, site string) *db.Shift {
	for i := range shifts {
		if shifts[i].Matches(date, user, site) && shifts[i].IsOpen() {
			return &shifts[i]
		}
	}
	return nil
}

func parseDate(date string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return t, nil
}

// Now splits a wall-clock instant into the ledger's date and time of day in loc
func Now(now time.Time, loc *time.Location) (string, model.Clock) {
	local := now.In(loc)
	return local.Format(model.DateLayout), model.ClockOf(local)
}
