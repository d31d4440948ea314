package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"nsx-policy-maker/internal/tabular"
)

var (
	ErrInputNotFound     = errors.New("input file not found")
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

// Row numbers of the policy sheet layout: the policy header is on row 1 with
// its values on row 2, row 3 is reserved for annotations, and rule column
// names are on row 4.
const (
	policyHeaderLine = 1
	rulesHeaderLine  = 4
)

type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

// DetectFormat picks the reader for a path from its extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return 0, fmt.Errorf("%w: %s (expected .csv, .xlsx or .xlsm)", ErrUnsupportedFormat, path)
	}
}

// Sheet is one policy: the header row and its rule rows in source order.
type Sheet struct {
	Name   string
	Header tabular.Row
	Rules  []tabular.Row
}

// Source provides policy sheets and IP set rows for a named input.
type Source interface {
	PolicySheets(name string) ([]Sheet, error)
	IPSetRows(name string) ([]tabular.Row, error)
}

// FileSource reads CSV and Excel workbooks from disk.
type FileSource struct{}

// PolicySheets reads every sheet of a workbook. Sheets that cannot be read
// are logged and skipped; a CSV file is a single sheet named after the file.
func (FileSource) PolicySheets(path string) ([]Sheet, error) {
	format, err := checkInput(path)
	if err != nil {
		return nil, err
	}

	if format == FormatCSV {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		sheet, err := ParsePolicyCSV(f, name)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		return []Sheet{sheet}, nil
	}

	workbook, err := readWorkbook(path)
	if err != nil {
		return nil, err
	}
	var sheets []Sheet
	for _, ws := range workbook {
		sheet, err := policySheet(ws.name, ws.records)
		if err != nil {
			slog.Warn("Skipping unreadable sheet", "path", path, "sheet", ws.name, "error", err)
			continue
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

// IPSetRows reads the first sheet of an IP set workbook, one group per row.
func (FileSource) IPSetRows(path string) ([]tabular.Row, error) {
	format, err := checkInput(path)
	if err != nil {
		return nil, err
	}

	if format == FormatCSV {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseIPSetCSV(f)
	}

	workbook, err := readWorkbook(path)
	if err != nil {
		return nil, err
	}
	if len(workbook) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	return tableRows(workbook[0].records), nil
}

func checkInput(path string) (Format, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return 0, err
	}
	return DetectFormat(path)
}

// record is one source row with the 1-based line or row number it started on.
// values is set when the reader already knows the type of every cell.
type record struct {
	line   int
	cells  []string
	values []tabular.Value
}

func (r record) row(columns []string) tabular.Row {
	if r.values != nil {
		return tabular.NewRow(columns, r.values)
	}
	return tabular.NewTextRow(columns, r.cells)
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func policySheet(name string, records []record) (Sheet, error) {
	if len(records) == 0 || records[0].line != policyHeaderLine {
		return Sheet{}, fmt.Errorf("sheet %q has no policy header on row %d", name, policyHeaderLine)
	}

	sheet := Sheet{Name: name}
	var values record
	if len(records) > 1 && records[1].line < rulesHeaderLine {
		values = records[1]
	}
	sheet.Header = values.row(records[0].cells)

	for i, rec := range records {
		if rec.line < rulesHeaderLine {
			continue
		}
		sheet.Rules = tableRows(records[i:])
		break
	}
	return sheet, nil
}

// tableRows treats the first record as column names and every later
// non-blank record as a row.
func tableRows(records []record) []tabular.Row {
	if len(records) == 0 {
		return nil
	}
	columns := records[0].cells
	var rows []tabular.Row
	for _, rec := range records[1:] {
		if blank(rec.cells) {
			continue
		}
		rows = append(rows, rec.row(columns))
	}
	return rows
}
