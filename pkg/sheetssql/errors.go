package sheetssql

import "fmt"

// MissingColumnError reports a required column absent from a table's header
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %s is missing column %q", e.Table, e.Column)
}
