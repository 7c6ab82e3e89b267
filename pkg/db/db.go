package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/sheetssql"
)

// DB provides database operations using SheetsSQL
type DB struct {
	ssql *sheetssql.DB
}

// NewDB creates a new database instance
func NewDB(ssql *sheetssql.DB) *DB {
	return &DB{
		ssql: ssql,
	}
}

// Open connects to the spreadsheet, creating or verifying the shift table.
// A sheet whose header lacks a required column fails with ErrMissingColumn.
func Open(ctx context.Context, client sheetssql.SheetsClient, spreadsheetID string) (*DB, error) {
	schema, err := Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	ssql, err := sheetssql.NewDB(ctx, client, spreadsheetID, schema)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to initialize spreadsheet: %w", err))
	}
	return NewDB(ssql), nil
}

// Schema returns the tables this package owns. The overtime rule table is
// maintained by hand and is never created or verified at startup.
func Schema() (*sheetssql.Schema, error) {
	return sheetssql.SchemaFromModels(Shift{})
}

// GetShifts retrieves all shift records in sheet order
func (db *DB) GetShifts(ctx context.Context) ([]Shift, error) {
	shifts, err := sheetssql.GetTableAs[Shift](ctx, db.ssql, Shift{}.TableName())
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get shifts: %w", err))
	}
	return shifts, nil
}

// InsertShift appends a new shift record
func (db *DB) InsertShift(ctx context.Context, shift *Shift) error {
	if err := sheetssql.InsertModel(ctx, db.ssql, *shift); err != nil {
		return classify(fmt.Errorf("failed to insert shift: %w", err))
	}
	return nil
}

// CloseShift fills the close columns of one shift in a single update
func (db *DB) CloseShift(ctx context.Context, row int, closeDate, closeTime, roundedEnd string) error {
	err := db.ssql.UpdateRow(ctx, Shift{}.TableName(), row, map[string]interface{}{
		ColumnCloseDate:  closeDate,
		ColumnCloseTime:  closeTime,
		ColumnRoundedEnd: roundedEnd,
	})
	if err != nil {
		return classify(fmt.Errorf("failed to close shift: %w", err))
	}
	return nil
}

// GetOvertimeRules reads the overtime rule table
func (db *DB) GetOvertimeRules(ctx context.Context) ([]OvertimeRule, error) {
	rules, err := sheetssql.GetTableAs[OvertimeRule](ctx, db.ssql, OvertimeRule{}.TableName())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrRuleLookup, err)
	}
	return rules, nil
}

// SetOvertime writes the expected length and overtime of one shift in a single update
func (db *DB) SetOvertime(ctx context.Context, row int, expected, overtime string) error {
	err := db.ssql.UpdateRow(ctx, Shift{}.TableName(), row, map[string]interface{}{
		ColumnExpected: expected,
		ColumnOvertime: overtime,
	})
	if err != nil {
		return classify(fmt.Errorf("failed to set overtime: %w", err))
	}
	return nil
}

// classify tags a storage failure with its error kind: a missing header
// column is a schema problem, anything else is the store being unreachable
func classify(err error) error {
	var missing *sheetssql.MissingColumnError
	if errors.As(err, &missing) {
		return fmt.Errorf("%w: %w", model.ErrMissingColumn, err)
	}
	return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
}
