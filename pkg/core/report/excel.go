// Package report exports a flagged table to an Excel workbook for manual
// review. Coordinated rows are highlighted so clusters stand out without
// filtering.
package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"coordscan/pkg/core/detect"
	"coordscan/pkg/core/tabular"
)

const sheetName = "Flagged"

// WriteXLSX writes the table to an .xlsx file, one sheet, header row frozen,
// coordinated rows filled.
func WriteXLSX(t *tabular.Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	highlight, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFF2CC"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for c, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	coordCol := t.Col(detect.ColCoordinated)
	for r, row := range t.Rows {
		for c := range t.Headers {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			var value string
			if c < len(row) {
				value = row[c]
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
		if coordCol >= 0 && coordCol < len(row) && row[coordCol] == "True" {
			first, _ := excelize.CoordinatesToCellName(1, r+2)
			last, _ := excelize.CoordinatesToCellName(len(t.Headers), r+2)
			if err := f.SetCellStyle(sheetName, first, last, highlight); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Summary returns a short per-file description for logging.
func Summary(t *tabular.Table) string {
	coordCol := t.Col(detect.ColCoordinated)
	n := 0
	if coordCol >= 0 {
		for _, row := range t.Rows {
			if coordCol < len(row) && row[coordCol] == "True" {
				n++
			}
		}
	}
	return strconv.Itoa(len(t.Rows)) + " rows, " + strconv.Itoa(n) + " coordinated"
}
