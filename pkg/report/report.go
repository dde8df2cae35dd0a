// Package report writes classification results to a spreadsheet.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single sheet results are written to.
const SheetName = "Results"

// Row is one line of the results table.
type Row struct {
	GraphName string
	Result    string
}

// WriteXLSX writes the header row and one row per record to an xlsx workbook
// at path, overwriting any existing file. An empty record list still produces
// the header.
func WriteXLSX(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &[]any{"Graph Name", "Result"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if err := f.SetSheetRow(SheetName, cell, &[]any{row.GraphName, row.Result}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
