package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jakechorley/shift-ledger/pkg/db"
)

// ExportShifts writes shifts as CSV with the canonical column names as header
func ExportShifts(w io.Writer, shifts []db.Shift) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(db.ShiftColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, shift := range shifts {
		if err := writer.Write(shift.Values()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", shift.Row, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
