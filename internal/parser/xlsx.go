package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"nsx-policy-maker/internal/tabular"
)

type worksheet struct {
	name    string
	records []record
}

// readWorkbook loads every worksheet of an Excel workbook in tab order. Rows
// keep their sheet row numbers, so blank rows still count toward the layout.
// Cells are read as stored rather than as displayed, so a number formatted
// as 1,000 reads as 1000.
func readWorkbook(path string) ([]worksheet, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("could not open workbook %s: %w", path, err)
	}
	defer f.Close()

	var sheets []worksheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			slog.Warn("Skipping unreadable sheet", "path", path, "sheet", name, "error", err)
			continue
		}
		ws := worksheet{name: name}
		for i, cells := range rows {
			if len(cells) == 0 {
				continue
			}
			values := make([]tabular.Value, len(cells))
			for c, raw := range cells {
				values[c] = cellValue(f, name, c+1, i+1, raw)
			}
			ws.records = append(ws.records, record{line: i + 1, cells: cells, values: values})
		}
		sheets = append(sheets, ws)
	}
	return sheets, nil
}

// cellValue types a raw cell by the type stored in the workbook. Text cells
// stay text even when they look numeric; booleans are stored as 1 or 0.
func cellValue(f *excelize.File, sheet string, col, row int, raw string) tabular.Value {
	if strings.TrimSpace(raw) == "" {
		return tabular.NullValue()
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return tabular.ParseCell(raw)
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return tabular.ParseCell(raw)
	}
	switch typ {
	case excelize.CellTypeBool:
		return tabular.BoolValue(raw == "1")
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return tabular.StringValue(raw)
	default:
		return tabular.ParseCell(raw)
	}
}
