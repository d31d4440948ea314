package parser

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"nsx-policy-maker/internal/tabular"

	_ "github.com/go-sql-driver/mysql"
)

// MariaDBSource reads workbooks that were loaded into MariaDB. Each sheet is
// a row of policy_sheet holding the header as a JSON object, with its rules
// in policy_rule; IP set workbooks live in ip_set_row.
type MariaDBSource struct {
	db *sql.DB
}

func NewMariaDBSource(dsn string) (*MariaDBSource, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &MariaDBSource{db: db}, nil
}

func (s *MariaDBSource) Close() {
	s.db.Close()
}

// PolicySheets returns the sheets of a workbook ordered by position.
func (s *MariaDBSource) PolicySheets(workbook string) ([]Sheet, error) {
	rows, err := s.db.Query("SELECT sheet_name, header_json FROM policy_sheet WHERE workbook = ? ORDER BY position ASC", workbook)
	if err != nil {
		return nil, fmt.Errorf("failed to load sheets: %w", err)
	}
	defer rows.Close()

	var sheets []Sheet
	for rows.Next() {
		var name, headerJSON string
		if err := rows.Scan(&name, &headerJSON); err != nil {
			return nil, err
		}
		header, err := decodeRow(headerJSON)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: bad header: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Header: header})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook %q has no sheets in the database", ErrInputNotFound, workbook)
	}

	for i := range sheets {
		if sheets[i].Rules, err = s.loadRules(workbook, sheets[i].Name); err != nil {
			return nil, fmt.Errorf("sheet %q: failed to load rules: %w", sheets[i].Name, err)
		}
	}
	return sheets, nil
}

func (s *MariaDBSource) loadRules(workbook, sheet string) ([]tabular.Row, error) {
	rows, err := s.db.Query("SELECT row_json FROM policy_rule WHERE workbook = ? AND sheet_name = ? ORDER BY row_index ASC", workbook, sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []tabular.Row
	for rows.Next() {
		var rowJSON string
		if err := rows.Scan(&rowJSON); err != nil {
			return nil, err
		}
		row, err := decodeRow(rowJSON)
		if err != nil {
			return nil, err
		}
		rules = append(rules, row)
	}
	return rules, rows.Err()
}

// IPSetRows returns the group_name and csv cells of an IP set workbook.
func (s *MariaDBSource) IPSetRows(workbook string) ([]tabular.Row, error) {
	rows, err := s.db.Query("SELECT group_name, csv FROM ip_set_row WHERE workbook = ? ORDER BY row_index ASC", workbook)
	if err != nil {
		return nil, fmt.Errorf("failed to load ip sets: %w", err)
	}
	defer rows.Close()

	columns := []string{"group_name", "csv"}
	var out []tabular.Row
	for rows.Next() {
		var group, csv sql.NullString
		if err := rows.Scan(&group, &csv); err != nil {
			return nil, err
		}
		out = append(out, tabular.NewRow(columns, []tabular.Value{nullable(group), nullable(csv)}))
	}
	return out, rows.Err()
}

func nullable(s sql.NullString) tabular.Value {
	if !s.Valid {
		return tabular.NullValue()
	}
	return tabular.FromJSON(s.String)
}

// decodeRow reads a flat JSON object into a row, keeping key order as the
// column order.
func decodeRow(data string) (tabular.Row, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return tabular.Row{}, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return tabular.Row{}, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var columns []string
	var cells []tabular.Value
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return tabular.Row{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return tabular.Row{}, fmt.Errorf("expected an object key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return tabular.Row{}, fmt.Errorf("column %q: %w", key, err)
		}
		columns = append(columns, key)
		cells = append(cells, tabular.FromJSON(v))
	}
	if _, err := dec.Token(); err != nil {
		return tabular.Row{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return tabular.Row{}, fmt.Errorf("unexpected data after JSON object")
	}
	return tabular.NewRow(columns, cells), nil
}
