package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nsx-policy-maker/internal/tabular"
)

const policyCSV = `policy_display_name,category,sequence_number
App-Web,application,5
annotation,,
rule_display_name,source_groups,services,logged
allow-web,"web,app",HTTPS_path,TRUE
,,,
deny-all,any,,False
`

func TestParsePolicyCSVLayout(t *testing.T) {
	sheet, err := ParsePolicyCSV(strings.NewReader(policyCSV), "app")
	require.NoError(t, err)

	assert.Equal(t, "app", sheet.Name)
	assert.Equal(t, "App-Web", sheet.Header.Get("policy_display_name").Text())
	assert.Equal(t, "application", sheet.Header.Get("category").Text())
	n, ok := sheet.Header.Get("sequence_number").Int()
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	require.Len(t, sheet.Rules, 2)
	assert.Equal(t, "allow-web", sheet.Rules[0].Get("rule_display_name").Text())
	assert.Equal(t, "web,app", sheet.Rules[0].Get("source_groups").Text())
	assert.Equal(t, tabular.Bool, sheet.Rules[0].Get("logged").Kind())
	assert.True(t, sheet.Rules[0].Get("logged").Bool())
	assert.Equal(t, "deny-all", sheet.Rules[1].Get("rule_display_name").Text())
	assert.True(t, sheet.Rules[1].Get("services").IsNull())
	assert.False(t, sheet.Rules[1].Get("logged").Bool())
}

func TestParsePolicyCSVCountsBlankLines(t *testing.T) {
	input := "policy_display_name\nApp\n\nrule_display_name,action\nr1,DROP\n"

	sheet, err := ParsePolicyCSV(strings.NewReader(input), "blank")
	require.NoError(t, err)

	assert.Equal(t, "App", sheet.Header.Get("policy_display_name").Text())
	require.Len(t, sheet.Rules, 1)
	assert.Equal(t, "DROP", sheet.Rules[0].Get("action").Text())
}

func TestParsePolicyCSVHeaderOnly(t *testing.T) {
	sheet, err := ParsePolicyCSV(strings.NewReader("policy_display_name,category\n"), "bare")
	require.NoError(t, err)

	assert.True(t, sheet.Header.Get("policy_display_name").IsNull())
	assert.Empty(t, sheet.Rules)
}

func TestParsePolicyCSVEmptyInput(t *testing.T) {
	_, err := ParsePolicyCSV(strings.NewReader(""), "empty")
	assert.Error(t, err)
}

func TestParsePolicyCSVFallsBackToLatin1(t *testing.T) {
	// "Caf\xe9" is Latin-1 for Café and is not valid UTF-8.
	input := "policy_display_name,description\nApp,Caf\xe9\n"

	sheet, err := ParsePolicyCSV(strings.NewReader(input), "latin")
	require.NoError(t, err)
	assert.Equal(t, "Café", sheet.Header.Get("description").Text())
}

func TestParsePolicyCSVStripsBOM(t *testing.T) {
	input := "\xef\xbb\xbfpolicy_display_name\nApp\n"

	sheet, err := ParsePolicyCSV(strings.NewReader(input), "bom")
	require.NoError(t, err)
	assert.Equal(t, []string{"policy_display_name"}, sheet.Header.Columns())
}

func TestParseIPSetCSV(t *testing.T) {
	input := "group_name,csv\nDB_Servers,\"10.1.1.10, 10.1.1.11\"\n,\n\nWeb,10.2.0.0/16\n"

	rows, err := ParseIPSetCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "DB_Servers", rows[0].Get("group_name").Text())
	assert.Equal(t, "10.1.1.10, 10.1.1.11", rows[0].Get("csv").Text())
	assert.Equal(t, "Web", rows[1].Get("group_name").Text())
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{path: "a.csv", want: FormatCSV},
		{path: "a.CSV", want: FormatCSV},
		{path: "a.xlsx", want: FormatXLSX},
		{path: "a.xlsm", want: FormatXLSX},
		{path: "a.xls", err: true},
		{path: "a.txt", err: true},
		{path: "noext", err: true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if tt.err {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, tt.path)
			continue
		}
		assert.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestFileSourceMissingInput(t *testing.T) {
	_, err := FileSource{}.PolicySheets(filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, errors.Is(err, ErrInputNotFound))
}

func TestFileSourceRejectsXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xls")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := FileSource{}.IPSetRows(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileSourceCSVSheetIsNamedAfterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payments.csv")
	require.NoError(t, os.WriteFile(path, []byte(policyCSV), 0o644))

	sheets, err := FileSource{}.PolicySheets(path)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "payments", sheets[0].Name)
	assert.Len(t, sheets[0].Rules, 2)
}

func writeWorkbook(t *testing.T, sheets map[string][][]any, order ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, cells := range sheets[name] {
			if len(cells) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := cells
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestFileSourceReadsEveryWorkbookSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Web": {
			{"policy_display_name", "category", "sequence_number"},
			{"Payments-Web", "Application", 5},
			{"notes for the reader"},
			{"rule_display_name", "source_groups", "logged"},
			{"allow-web", "web", true},
			{"allow-api", "api", false},
		},
		"Db": {
			{"policy_display_name", "category"},
			{"Payments-Db", "Environment"},
			{},
			{"rule_display_name", "destination_groups"},
			{"allow-db", "db"},
		},
	}, "Web", "Db")

	sheets, err := FileSource{}.PolicySheets(path)
	require.NoError(t, err)
	require.Len(t, sheets, 2)

	web := sheets[0]
	assert.Equal(t, "Web", web.Name)
	assert.Equal(t, "Payments-Web", web.Header.Get("policy_display_name").Text())
	n, ok := web.Header.Get("sequence_number").Int()
	assert.True(t, ok)
	assert.Equal(t, 5, n)
	require.Len(t, web.Rules, 2)
	assert.True(t, web.Rules[0].Get("logged").Bool())
	assert.False(t, web.Rules[1].Get("logged").Bool())

	db := sheets[1]
	assert.Equal(t, "Db", db.Name)
	require.Len(t, db.Rules, 1)
	assert.Equal(t, "allow-db", db.Rules[0].Get("rule_display_name").Text())
}

func TestFileSourceIPSetRowsFromWorkbook(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Sets": {
			{"group_name", "csv"},
			{"DB_Servers", "10.1.1.10,10.1.1.11"},
			{},
			{"Web", "10.2.0.0/16"},
		},
		"Ignored": {
			{"group_name", "csv"},
			{"Other", "10.3.0.1"},
		},
	}, "Sets", "Ignored")

	rows, err := FileSource{}.IPSetRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "DB_Servers", rows[0].Get("group_name").Text())
	assert.Equal(t, "Web", rows[1].Get("group_name").Text())
}

func TestParsePolicyCSVKeepsNumericLookingText(t *testing.T) {
	input := "policy_display_name,sequence_number\n0042,1e1\n\nrule_display_name,source_groups\n007,1e3\n"

	sheet, err := ParsePolicyCSV(strings.NewReader(input), "numeric")
	require.NoError(t, err)

	assert.Equal(t, "0042", sheet.Header.Get("policy_display_name").Text())
	n, ok := sheet.Header.Get("sequence_number").Int()
	require.True(t, ok)
	assert.Equal(t, 10, n)
	require.Len(t, sheet.Rules, 1)
	assert.Equal(t, "007", sheet.Rules[0].Get("rule_display_name").Text())
	assert.Equal(t, "1e3", sheet.Rules[0].Get("source_groups").Text())
}

func TestFileSourceReadsStoredCellValues(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := map[string][]any{
		"A1": {"policy_display_name", "category", "sequence_number", "locked"},
		"A2": {"0042", "Application", 1000, true},
		"A4": {"rule_display_name", "source_groups", "logged", "sequence_number"},
		"A5": {"007", "1e3", "TRUE", "12"},
	}
	for cell, values := range rows {
		row := values
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "C2", "C2", thousands))

	path := filepath.Join(t.TempDir(), "stored.xlsx")
	require.NoError(t, f.SaveAs(path))

	sheets, err := FileSource{}.PolicySheets(path)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	header := sheets[0].Header

	assert.Equal(t, "0042", header.Get("policy_display_name").Text())
	n, ok := header.Get("sequence_number").Int()
	require.True(t, ok, "a number displayed as 1,000 is still a number")
	assert.Equal(t, 1000, n)
	assert.Equal(t, tabular.Bool, header.Get("locked").Kind())
	assert.True(t, header.Get("locked").Bool())

	require.Len(t, sheets[0].Rules, 1)
	rule := sheets[0].Rules[0]
	assert.Equal(t, tabular.String, rule.Get("rule_display_name").Kind())
	assert.Equal(t, "007", rule.Get("rule_display_name").Text())
	assert.Equal(t, "1e3", rule.Get("source_groups").Text())
	assert.True(t, rule.Get("logged").Bool())
	n, ok = rule.Get("sequence_number").Int()
	require.True(t, ok)
	assert.Equal(t, 12, n)
}
