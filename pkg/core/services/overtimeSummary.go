package services

import (
	"sort"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

// UserOvertime totals one user's closed shifts
type UserOvertime struct {
	User            string
	Shifts          int
	WorkedMinutes   int
	OvertimeMinutes int
}

// SummarizeOvertime totals worked and overtime minutes per user across closed shifts.
// Worked time comes from the rounded start and end; overtime is read from the
// stored overtime column, so shifts not yet processed by ComputeOvertime count
// as zero overtime.
func SummarizeOvertime(shifts []db.Shift) []UserOvertime {
	byUser := make(map[string]*UserOvertime)

	for _, shift := range shifts {
		if shift.IsOpen() {
			continue
		}
		total, ok := byUser[shift.User]
		if !ok {
			total = &UserOvertime{User: shift.User}
			byUser[shift.User] = total
		}
		total.Shifts++

		start, errStart := model.ParseClock(shift.RoundedStart)
		end, errEnd := model.ParseClock(shift.RoundedEnd)
		if errStart == nil && errEnd == nil {
			total.WorkedMinutes += model.ElapsedMinutes(start, end)
		}
		if overtime, err := model.ParseMinutes(shift.Overtime); err == nil {
			total.OvertimeMinutes += overtime
		}
	}

	result := make([]UserOvertime, 0, len(byUser))
	for _, total := range byUser {
		result = append(result, *total)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].User < result[j].User
	})
	return result
}
