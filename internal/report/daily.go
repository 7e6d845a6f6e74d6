// Package report renders reservation data for staff.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/table-reservation/internal/model"
)

// ContentTypeXLSX is the media type of WriteDaily's output.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var dailyHeader = []string{"Period", "Table", "Type", "Capacity", "Guests", "Name", "Phone", "Reservation ID", "Booked at"}

// WriteDaily writes one sheet named after date listing every reservation
// of that day in the given order.  Payment references are never exported.
func WriteDaily(w io.Writer, date string, tables []model.Table, reservations []model.Reservation) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := date
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	byID := make(map[uint64]model.Table, len(tables))
	for _, t := range tables {
		byID[t.ID] = t
	}

	if err := writeRow(f, sheet, 1, toCells(dailyHeader)); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		end, _ := excelize.CoordinatesToCellName(len(dailyHeader), 1)
		_ = f.SetCellStyle(sheet, "A1", end, style)
	}

	for i, r := range reservations {
		t := byID[r.TableID]
		row := []interface{}{
			string(r.Period), r.TableID, t.Type, t.Capacity, r.Guests,
			r.Name, r.Phone, r.ID, r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "F", "G", 20); err != nil {
		return err
	}
	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toCells(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
