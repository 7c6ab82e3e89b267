package sheetssql

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Tabler lets a model choose its tab name instead of the snake_case struct name
type Tabler interface {
	TableName() string
}

// SchemaFromModels builds a Schema by reflecting on struct definitions
// Each struct represents a table, with fields representing columns
// Fields must have an `ssql_header:"column name"` tag; a field tagged
// `ssql_row:"true"` receives the sheet row number instead
func SchemaFromModels(models ...interface{}) (*Schema, error) {
	tables := make([]TableSchema, 0, len(models))

	for _, model := range models {
		table, err := tableSchemaFromModel(model)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	return &Schema{Tables: tables}, nil
}

// tableSchemaFromModel extracts a TableSchema from a single struct
func tableSchemaFromModel(model interface{}) (TableSchema, error) {
	t := reflect.TypeOf(model)

	// Handle pointer to struct
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return TableSchema{}, fmt.Errorf("model must be a struct, got %s", t.Kind())
	}

	columns := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if isRowField(field) {
			continue
		}

		header := field.Tag.Get("ssql_header")
		if header == "" {
			return TableSchema{}, fmt.Errorf("field %s.%s missing 'ssql_header' tag", t.Name(), field.Name)
		}
		columns = append(columns, header)
	}

	if len(columns) == 0 {
		return TableSchema{}, fmt.Errorf("struct %s has no fields", t.Name())
	}

	return TableSchema{
		Name:    tableNameOf(t),
		Columns: columns,
	}, nil
}

func isRowField(field reflect.StructField) bool {
	return field.Tag.Get("ssql_row") == "true"
}

// tableNameOf returns the Tabler name if implemented, else snake_case of the type name
func tableNameOf(t reflect.Type) string {
	if tabler, ok := reflect.Zero(t).Interface().(Tabler); ok {
		return tabler.TableName()
	}
	return toSnakeCase(t.Name())
}

// toSnakeCase converts PascalCase to snake_case
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}

// ensureSchema verifies that every table exists and carries its columns
// Creates any missing tables
func (db *DB) ensureSchema(ctx context.Context) error {
	existingSheets, err := db.client.ListSheets(ctx, db.spreadsheetID)
	if err != nil {
		return fmt.Errorf("failed to get existing sheets: %w", err)
	}

	sheetSet := make(map[string]bool)
	for _, sheet := range existingSheets {
		sheetSet[sheet] = true
	}

	for _, table := range db.schema.Tables {
		if sheetSet[table.Name] {
			if err := db.verifyTableSchema(ctx, table); err != nil {
				return fmt.Errorf("table %s schema mismatch: %w", table.Name, err)
			}
		} else {
			if err := db.createTable(ctx, table); err != nil {
				return fmt.Errorf("failed to create table %s: %w", table.Name, err)
			}
		}
	}

	return nil
}

// verifyTableSchema checks that the header row holds every schema column.
// Order is free and extra columns are allowed.
func (db *DB) verifyTableSchema(ctx context.Context, table TableSchema) error {
	h, err := db.readHeader(ctx, table.Name)
	if err != nil {
		return err
	}

	for _, col := range table.Columns {
		if _, ok := h.index(col); !ok {
			return &MissingColumnError{Table: table.Name, Column: col}
		}
	}

	return nil
}

// createTable creates a new sheet holding only the header row
func (db *DB) createTable(ctx context.Context, table TableSchema) error {
	if _, err := db.client.CreateSheet(ctx, db.spreadsheetID, table.Name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		headers[i] = col
	}

	if err := db.client.AppendRows(ctx, db.spreadsheetID, quoteTable(table.Name), [][]interface{}{headers}); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	return nil
}
