package api

import (
	"github.com/jakechorley/shift-ledger/pkg/core/services"
	"github.com/jakechorley/shift-ledger/pkg/db"
)

type LoginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  string `json:"user"`
	Role  string `json:"role"`
}

type SessionResponse struct {
	State string `json:"state"`
	User  string `json:"user,omitempty"`
}

// StartShiftRequest opens a shift now. Admins may act for another user.
type StartShiftRequest struct {
	Site string `json:"site"`
	User string `json:"user,omitempty"`
}

// CloseShiftRequest closes a shift now. Date selects the shift's logical day
// and defaults to today, so an overnight shift passes yesterday's date.
type CloseShiftRequest struct {
	Site string `json:"site"`
	User string `json:"user,omitempty"`
	Date string `json:"date,omitempty"`
}

type ShiftDTO struct {
	Row          int    `json:"row"`
	Date         string `json:"date"`
	User         string `json:"user"`
	Site         string `json:"site"`
	StartTime    string `json:"startTime"`
	CloseDate    string `json:"closeDate,omitempty"`
	CloseTime    string `json:"closeTime,omitempty"`
	RoundedStart string `json:"roundedStart"`
	RoundedEnd   string `json:"roundedEnd,omitempty"`
	Expected     string `json:"expected,omitempty"`
	Overtime     string `json:"overtime,omitempty"`
	Open         bool   `json:"open"`
}

type OvertimeResultDTO struct {
	Updated    int `json:"updated"`
	Unchanged  int `json:"unchanged"`
	NoRule     int `json:"noRule"`
	Incomplete int `json:"incomplete"`
	Invalid    int `json:"invalid"`
}

type UserOvertimeDTO struct {
	User     string `json:"user"`
	Shifts   int    `json:"shifts"`
	Worked   string `json:"worked"`
	Overtime string `json:"overtime"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toShiftDTO(s db.Shift) ShiftDTO {
	return ShiftDTO{
		Row:          s.Row,
		Date:         s.Date,
		User:         s.User,
		Site:         s.Site,
		StartTime:    s.StartTime,
		CloseDate:    s.CloseDate,
		CloseTime:    s.CloseTime,
		RoundedStart: s.RoundedStart,
		RoundedEnd:   s.RoundedEnd,
		Expected:     s.Expected,
		Overtime:     s.Overtime,
		Open:         s.IsOpen(),
	}
}

func toShiftDTOs(shifts []db.Shift) []ShiftDTO {
	out := make([]ShiftDTO, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, toShiftDTO(s))
	}
	return out
}

func toOvertimeResultDTO(r *services.OvertimeResult) OvertimeResultDTO {
	if r == nil {
		return OvertimeResultDTO{}
	}
	return OvertimeResultDTO{
		Updated:    r.Updated,
		Unchanged:  r.Unchanged,
		NoRule:     r.NoRule,
		Incomplete: r.Incomplete,
		Invalid:    r.Invalid,
	}
}
