package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

func XLSX(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	meta := [][]interface{}{
		{"billing_id", doc.BillingID},
		{"provider", doc.ProviderName},
		{"period_start", doc.PeriodStart.Format("2006-01-02 15:04")},
		{"period_end", doc.PeriodEnd.Format("2006-01-02 15:04")},
		{"total", doc.Total},
	}
	row := 1
	for _, m := range meta {
		if err := setRow(f, sheet, row, m); err != nil {
			return nil, err
		}
		row++
	}
	row++

	header := []interface{}{"booking_id", "room", "slot", "duration_minutes", "details", "amount"}
	if err := setRow(f, sheet, row, header); err != nil {
		return nil, err
	}
	row++

	for _, l := range doc.Lines {
		line := []interface{}{l.BookingID, l.Room, l.Slot, l.DurationMinutes, l.Description, l.Amount}
		if err := setRow(f, sheet, row, line); err != nil {
			return nil, err
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx row %d: %w", row, err)
	}
	return nil
}
