package schemamap

import (
	"math"
	"strconv"
	"strings"
)

// Kind classifies a table cell.
type Kind int

const (
	Missing Kind = iota
	Number
	Text
)

// Value is one table cell.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

func Num(v float64) Value { return Value{Kind: Number, Num: v} }

func Str(s string) Value { return Value{Kind: Text, Str: s} }

func Null() Value { return Value{} }

// nullTokens are the cell spellings read as missing, matching the pandas
// read_csv defaults.
var nullTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsNullToken reports whether s spells a missing value.
func IsNullToken(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// IsMissing reports whether the cell has no value. Non-finite numbers and
// null tokens count as missing.
func (v Value) IsMissing() bool {
	switch v.Kind {
	case Number:
		return !isFinite(v.Num)
	case Text:
		return IsNullToken(v.Str)
	default:
		return true
	}
}

// Float returns the numeric reading of the cell. Text cells are parsed.
// Missing and non-finite cells report false.
func (v Value) Float() (float64, bool) {
	var f float64
	switch v.Kind {
	case Number:
		f = v.Num
	case Text:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if !isFinite(f) {
		return 0, false
	}
	return f, true
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// String renders the cell; missing cells render empty.
func (v Value) String() string {
	switch v.Kind {
	case Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case Text:
		return v.Str
	default:
		return ""
	}
}

// Table is a column-named batch of rows. Rows shorter than Columns are
// treated as missing in the trailing cells.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Index returns the position of the named column or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row r, column c.
func (t Table) Cell(r, c int) Value {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return Null()
	}
	return t.Rows[r][c]
}

// Column returns a copy of the named column's cells.
func (t Table) Column(name string) []Value {
	idx := t.Index(name)
	out := make([]Value, len(t.Rows))
	for r := range t.Rows {
		out[r] = t.Cell(r, idx)
	}
	return out
}

// Clone deep-copies the table.
func (t Table) Clone() Table {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]Value, len(row))
		copy(rows[i], row)
	}
	return Table{Columns: cols, Rows: rows}
}
