package sheetssql

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// SheetsClient defines the interface for sheets operations
type SheetsClient interface {
	GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
	AppendRows(ctx context.Context, spreadsheetID, sheetRange string, values [][]interface{}) error
	BatchUpdateValues(ctx context.Context, spreadsheetID string, data []*sheets.ValueRange) error
	CreateSheet(ctx context.Context, spreadsheetID, sheetTitle string) (int64, error)
	ListSheets(ctx context.Context, spreadsheetID string) ([]string, error)
}

// TableSchema defines the header row a table must carry
type TableSchema struct {
	Name    string
	Columns []string
}

// Schema defines the database schema
type Schema struct {
	Tables []TableSchema
}

// DB represents a connection to a Google Sheets "database".
// Each table is a tab whose first row holds the column names; every
// following row is a record.
type DB struct {
	client        SheetsClient
	spreadsheetID string
	schema        *Schema
}

// NewDB creates a new Sheets SQL database connection and ensures schema exists
func NewDB(ctx context.Context, client SheetsClient, spreadsheetID string, schema *Schema) (*DB, error) {
	db := &DB{
		client:        client,
		spreadsheetID: spreadsheetID,
		schema:        schema,
	}

	if err := db.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// SpreadsheetID returns the database spreadsheet ID
func (db *DB) SpreadsheetID() string {
	return db.spreadsheetID
}

// InsertRow appends a single row, already in header order, to the table
func (db *DB) InsertRow(ctx context.Context, tableName string, row []interface{}) error {
	return db.client.AppendRows(ctx, db.spreadsheetID, quoteTable(tableName), [][]interface{}{row})
}

// UpdateRow overwrites the named cells of one row in a single request.
// rowNumber is the 1-based sheet row; column names are matched against the
// header case-insensitively.
func (db *DB) UpdateRow(ctx context.Context, tableName string, rowNumber int, values map[string]interface{}) error {
	if rowNumber < 2 {
		return fmt.Errorf("row %d is not a data row", rowNumber)
	}
	if len(values) == 0 {
		return nil
	}

	header, err := db.readHeader(ctx, tableName)
	if err != nil {
		return err
	}

	data := make([]*sheets.ValueRange, 0, len(values))
	for column, value := range values {
		idx, ok := header.index(column)
		if !ok {
			return &MissingColumnError{Table: tableName, Column: column}
		}
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", quoteTable(tableName), columnLetter(idx), rowNumber),
			Values: [][]interface{}{{value}},
		})
	}

	if err := db.client.BatchUpdateValues(ctx, db.spreadsheetID, data); err != nil {
		return fmt.Errorf("failed to update row %d of %s: %w", rowNumber, tableName, err)
	}
	return nil
}

// header maps normalized column names to their 0-based position
type header map[string]int

func newHeader(row []interface{}) header {
	h := make(header, len(row))
	for i, cell := range row {
		name := normalizeColumn(fmt.Sprint(cell))
		if name == "" {
			continue
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

func (h header) index(column string) (int, bool) {
	idx, ok := h[normalizeColumn(column)]
	return idx, ok
}

// readHeader fetches the first row of a table
func (db *DB) readHeader(ctx context.Context, tableName string) (header, error) {
	values, err := db.client.GetValues(ctx, db.spreadsheetID, quoteTable(tableName)+"!1:1")
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", tableName, err)
	}
	if len(values) == 0 {
		return header{}, nil
	}
	return newHeader(values[0]), nil
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// quoteTable quotes a tab name for use in A1 notation
func quoteTable(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// columnLetter converts a 0-based column index to its A1 letters (0 -> A, 26 -> AA)
func columnLetter(idx int) string {
	letters := ""
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		letters = string(rune('A'+(n-1)%26)) + letters
	}
	return letters
}
