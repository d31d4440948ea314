package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"nsx-policy-maker/internal/tabular"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParsePolicyCSV reads a single policy sheet from CSV.
func ParsePolicyCSV(r io.Reader, name string) (Sheet, error) {
	records, err := readCSV(r)
	if err != nil {
		return Sheet{}, err
	}
	return policySheet(name, records)
}

// ParseIPSetCSV reads IP set rows (group_name, csv) from CSV.
func ParseIPSetCSV(r io.Reader) ([]tabular.Row, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("could not read header: %w", io.EOF)
	}
	return tableRows(records), nil
}

// readCSV decodes the input as UTF-8, falling back to Latin-1 when the bytes
// are not valid UTF-8, and keeps the line each record starts on.
func readCSV(r io.Reader) ([]record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		if data, err = charmap.ISO8859_1.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("could not decode input as latin-1: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []record
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, cells: cells})
	}
	return records, nil
}
