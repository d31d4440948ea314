package tabular

import (
	"fmt"
	"strings"
)

type FieldKind int

const (
	TextField FieldKind = iota
	IntField
	BoolField
	ListField
)

// Field declares one column: its name, alternative column names tried in
// order when the name is absent, the expected kind and the default used when
// the cell is null or cannot be read as that kind.
type Field struct {
	Name    string
	Aliases []string
	Kind    FieldKind
	Default Value
}

// Schema is a set of declared fields read from a row.
type Schema struct {
	fields map[string]Field
	order  []string
}

func NewSchema(fields ...Field) *Schema {
	s := &Schema{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if _, dup := s.fields[f.Name]; !dup {
			s.order = append(s.order, f.Name)
		}
		s.fields[f.Name] = f
	}
	return s
}

// Issue is a cell whose content does not fit its declared kind. Readers
// degrade such cells to the field default; issues exist so callers can report them.
type Issue struct {
	Field string
	Value string
	Want  FieldKind
}

func (i Issue) Error() string {
	want := map[FieldKind]string{TextField: "text", IntField: "an integer", BoolField: "a boolean", ListField: "a list"}[i.Want]
	return fmt.Sprintf("column %q: %q is not %s, using default", i.Field, i.Value, want)
}

// Check validates a row against the schema once, at ingestion.
func (s *Schema) Check(row Row) []Issue {
	var issues []Issue
	for _, name := range s.order {
		f := s.fields[name]
		v := s.lookup(f, row)
		if v.IsNull() {
			continue
		}
		switch f.Kind {
		case IntField:
			if _, ok := v.Int(); !ok {
				issues = append(issues, Issue{Field: f.Name, Value: v.Text(), Want: f.Kind})
			}
		case BoolField:
			if v.Kind() == String && !strings.EqualFold(strings.TrimSpace(v.s), "TRUE") && !strings.EqualFold(strings.TrimSpace(v.s), "FALSE") {
				issues = append(issues, Issue{Field: f.Name, Value: v.Text(), Want: f.Kind})
			}
		case ListField:
			if v.Kind() == Bool {
				issues = append(issues, Issue{Field: f.Name, Value: v.Text(), Want: f.Kind})
			}
		}
	}
	return issues
}

// Bind attaches a row to the schema for typed access.
func (s *Schema) Bind(row Row) Record {
	return Record{schema: s, row: row}
}

func (s *Schema) field(name string) Field {
	f, ok := s.fields[name]
	if !ok {
		panic(fmt.Sprintf("tabular: field %q is not declared in the schema", name))
	}
	return f
}

func (s *Schema) lookup(f Field, row Row) Value {
	if v, ok := row.Lookup(f.Name); ok && !v.IsNull() {
		return v
	}
	for _, alias := range f.Aliases {
		if v, ok := row.Lookup(alias); ok && !v.IsNull() {
			return v
		}
	}
	return NullValue()
}

// Record is a row read through a schema.
type Record struct {
	schema *Schema
	row    Row
}

func (r Record) Row() Row { return r.row }

// Present reports whether the field (or one of its aliases) has a non-null cell.
func (r Record) Present(name string) bool {
	return !r.schema.lookup(r.schema.field(name), r.row).IsNull()
}

func (r Record) Text(name string) string {
	f := r.schema.field(name)
	v := r.schema.lookup(f, r.row)
	if v.IsNull() {
		return f.Default.Text()
	}
	return v.Text()
}

func (r Record) Int(name string) int {
	f := r.schema.field(name)
	if n, ok := r.schema.lookup(f, r.row).Int(); ok {
		return n
	}
	n, _ := f.Default.Int()
	return n
}

func (r Record) Bool(name string) bool {
	f := r.schema.field(name)
	v := r.schema.lookup(f, r.row)
	if v.IsNull() {
		return f.Default.Bool()
	}
	return v.Bool()
}

// List splits the cell on commas. Missing cells, blank text and a cell that
// is exactly "any" yield nil.
func (r Record) List(name string) []string {
	v := r.schema.lookup(r.schema.field(name), r.row)
	if v.IsNull() || v.Kind() == Bool {
		return nil
	}
	return SplitList(v.Text())
}

// SplitList splits comma-separated text, trimming every element and dropping
// empty ones. Only the exact text "any" is the wildcard; "ANY" or " any "
// are group names like any other.
func SplitList(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || text == "any" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(trimmed, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
