package db

import "context"

// ShiftReader reads every shift in storage order
type ShiftReader interface {
	GetShifts(ctx context.Context) ([]Shift, error)
}

// ShiftStore defines the operations used to open and close shifts
type ShiftStore interface {
	ShiftReader
	InsertShift(ctx context.Context, shift *Shift) error
	CloseShift(ctx context.Context, row int, closeDate, closeTime, roundedEnd string) error
}

// OvertimeStore defines the operations used by the overtime batch
type OvertimeStore interface {
	ShiftReader
	GetOvertimeRules(ctx context.Context) ([]OvertimeRule, error)
	SetOvertime(ctx context.Context, row int, expected, overtime string) error
}

// Database defines the interface for all database operations.
// Both the SheetsSQL-backed db.DB and postgres.DB implement this interface.
type Database interface {
	ShiftStore
	OvertimeStore
}
