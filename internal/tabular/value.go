// Package tabular holds the row model shared by every input provider: typed
// cell values, ordered rows and the declared schemas used to read them.
package tabular

import (
	"math"
	"strconv"
	"strings"
)

type Kind int

const (
	Null Kind = iota
	String
	Number
	Bool
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a single spreadsheet cell. Cells read from text keep that text
// in s so Text returns it unchanged whatever kind the cell was given.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
}

func NullValue() Value { return Value{} }

func StringValue(s string) Value { return Value{kind: String, s: s} }

func NumberValue(n float64) Value { return Value{kind: Number, n: n} }

func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

// ParseCell classifies raw cell text the way the CSV and XLSX readers see it:
// blank cells are null, TRUE/True/true and FALSE/False/false are booleans and
// anything that parses as a finite float is a number. The raw text is kept,
// so "007" reads as 7 through Int but is still "007" through Text.
func ParseCell(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NullValue()
	}
	switch trimmed {
	case "TRUE", "True", "true":
		return Value{kind: Bool, b: true, s: raw}
	case "FALSE", "False", "false":
		return Value{kind: Bool, b: false, s: raw}
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		return Value{kind: Number, n: n, s: raw}
	}
	return StringValue(raw)
}

// FromJSON converts a decoded encoding/json value into a cell.
func FromJSON(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(t)
	case float64:
		return NumberValue(t)
	case string:
		if strings.TrimSpace(t) == "" {
			return NullValue()
		}
		return StringValue(t)
	default:
		return NullValue()
	}
}

// Text renders the cell as text. Cells parsed from text return it as read;
// other integral numbers drop the fractional part.
func (v Value) Text() string {
	if v.kind != Null && v.s != "" {
		return v.s
	}
	switch v.kind {
	case String:
		return v.s
	case Number:
		if v.n == math.Trunc(v.n) && math.Abs(v.n) < 1e15 {
			return strconv.FormatInt(int64(v.n), 10)
		}
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Bool coerces the cell to a boolean: native booleans are kept, strings are
// true when they equal TRUE ignoring case, numbers are true when equal to 1.
// Everything else is false.
func (v Value) Bool() bool {
	switch v.kind {
	case Bool:
		return v.b
	case String:
		return strings.EqualFold(strings.TrimSpace(v.s), "TRUE")
	case Number:
		return v.n == 1
	default:
		return false
	}
}

// Int returns the cell as an integer, truncating numbers. ok is false for
// null cells and text that is not numeric.
func (v Value) Int() (n int, ok bool) {
	switch v.kind {
	case Number:
		return int(v.n), true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}
