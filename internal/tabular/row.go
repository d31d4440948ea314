package tabular

import "strings"

// Row is one spreadsheet row: column names in source order and their cells.
type Row struct {
	columns []string
	values  map[string]Value
}

// NewRow pairs columns with cells. Missing trailing cells are null and a
// repeated column name keeps its first cell.
func NewRow(columns []string, cells []Value) Row {
	r := Row{values: make(map[string]Value, len(columns))}
	for i, col := range columns {
		if _, dup := r.values[col]; dup {
			continue
		}
		v := NullValue()
		if i < len(cells) {
			v = cells[i]
		}
		r.columns = append(r.columns, col)
		r.values[col] = v
	}
	return r
}

// NewTextRow builds a row from raw cell text, classifying every cell with ParseCell.
func NewTextRow(columns, record []string) Row {
	cells := make([]Value, len(record))
	for i, raw := range record {
		cells[i] = ParseCell(raw)
	}
	return NewRow(columns, cells)
}

func (r Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

func (r Row) Len() int { return len(r.columns) }

// Lookup finds a column by exact name first, then by a trimmed
// case-insensitive match.
func (r Row) Lookup(name string) (Value, bool) {
	if v, ok := r.values[name]; ok {
		return v, true
	}
	for _, col := range r.columns {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return r.values[col], true
		}
	}
	return NullValue(), false
}

// Get is Lookup without the presence flag; absent columns are null.
func (r Row) Get(name string) Value {
	v, _ := r.Lookup(name)
	return v
}

// Blank reports whether every cell in the row is null.
func (r Row) Blank() bool {
	for _, v := range r.values {
		if !v.IsNull() {
			return false
		}
	}
	return true
}
