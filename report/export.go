package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sijujiampugi-arch/SpendWise/expense"
)

const sheetName = "Expenses"

var headers = []string{
	"Date",
	"Category",
	"Description",
	"Amount",
	"Owner",
	"Shared",
}

// WriteXLSX writes expenses as a single-sheet workbook, one row each.
func WriteXLSX(w io.Writer, rows []expense.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, r := range rows {
		line := i + 2
		amount, _ := r.Amount.Float64()
		values := []any{
			r.Date.Format("2006-01-02"),
			r.Category,
			expense.StripSharedMarker(r.Description),
			amount,
			r.OwnerEmail,
			r.IsShared,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, line)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("writing row %d: %w", line, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "B", 18)
	_ = f.SetColWidth(sheetName, "C", "C", 40)
	_ = f.SetColWidth(sheetName, "E", "E", 28)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
