package sheetssql

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// GetTableAs retrieves all rows from a table and maps them to structs of type T.
// The first row is the header; blank rows are skipped. Every `ssql_header`
// column of T must be present in the header, otherwise a *MissingColumnError
// is returned.
func GetTableAs[T any](ctx context.Context, db *DB, tableName string) ([]T, error) {
	values, err := db.client.GetValues(ctx, db.spreadsheetID, quoteTable(tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", tableName, err)
	}

	var model T
	t := reflect.TypeOf(model)
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", t.Kind())
	}

	var h header
	if len(values) > 0 {
		h = newHeader(values[0])
	}

	// Map every tagged field to its column position
	type boundField struct {
		index  int
		column string
		colIdx int
	}
	var fields []boundField
	rowFieldIdx := -1
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if isRowField(field) {
			rowFieldIdx = i
			continue
		}
		columnName := field.Tag.Get("ssql_header")
		if columnName == "" {
			continue
		}
		colIdx, ok := h.index(columnName)
		if !ok {
			return nil, &MissingColumnError{Table: tableName, Column: columnName}
		}
		fields = append(fields, boundField{index: i, column: columnName, colIdx: colIdx})
	}

	if len(values) < 2 {
		return []T{}, nil
	}

	results := make([]T, 0, len(values)-1)
	for i, row := range values[1:] {
		if isBlankRow(row) {
			continue
		}

		// Header is sheet row 1, so data starts at row 2
		rowNumber := i + 2
		result := reflect.New(t).Elem()

		for _, f := range fields {
			if f.colIdx >= len(row) || row[f.colIdx] == nil {
				continue
			}
			if err := setFieldValue(result.Field(f.index), row[f.colIdx]); err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", rowNumber, f.column, err)
			}
		}
		if rowFieldIdx >= 0 {
			result.Field(rowFieldIdx).SetInt(int64(rowNumber))
		}

		results = append(results, result.Interface().(T))
	}

	return results, nil
}

func isBlankRow(row []interface{}) bool {
	for _, cell := range row {
		if strings.TrimSpace(fmt.Sprint(cell)) != "" {
			return false
		}
	}
	return true
}

// setFieldValue converts a sheet cell value to the appropriate Go type and sets it on the field
func setFieldValue(field reflect.Value, cellValue interface{}) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	// Formatted values arrive as strings; anything else is rendered first
	cellStr, ok := cellValue.(string)
	if !ok {
		cellStr = fmt.Sprint(cellValue)
	}
	cellStr = strings.TrimSpace(cellStr)

	switch field.Kind() {
	case reflect.String:
		field.SetString(cellStr)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if cellStr == "" {
			field.SetInt(0)
		} else {
			intVal, err := strconv.ParseInt(cellStr, 10, 64)
			if err != nil {
				return fmt.Errorf("failed to parse int: %w", err)
			}
			field.SetInt(intVal)
		}

	case reflect.Float32, reflect.Float64:
		if cellStr == "" {
			field.SetFloat(0)
		} else {
			floatVal, err := strconv.ParseFloat(cellStr, 64)
			if err != nil {
				return fmt.Errorf("failed to parse float: %w", err)
			}
			field.SetFloat(floatVal)
		}

	case reflect.Bool:
		if cellStr == "" {
			field.SetBool(false)
		} else {
			boolVal, err := strconv.ParseBool(cellStr)
			if err != nil {
				return fmt.Errorf("failed to parse bool: %w", err)
			}
			field.SetBool(boolVal)
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// InsertModel appends a struct as a row to its corresponding table.
// Values are laid out in the order of the live header row, so the sheet's
// column order need not match the struct; unknown header columns stay empty.
func InsertModel[T any](ctx context.Context, db *DB, model T) error {
	t := reflect.TypeOf(model)
	v := reflect.ValueOf(model)
	tableName := tableNameOf(t)

	h, err := db.readHeader(ctx, tableName)
	if err != nil {
		return err
	}

	width := 0
	for _, idx := range h {
		if idx+1 > width {
			width = idx + 1
		}
	}

	row := make([]interface{}, width)
	for i := range row {
		row[i] = ""
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		columnName := field.Tag.Get("ssql_header")
		if columnName == "" || isRowField(field) {
			continue
		}

		idx, ok := h.index(columnName)
		if !ok {
			return &MissingColumnError{Table: tableName, Column: columnName}
		}
		row[idx] = v.Field(i).Interface()
	}

	return db.InsertRow(ctx, tableName, row)
}
