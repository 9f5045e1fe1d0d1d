package models

import (
	"math"
	"strconv"
	"strings"
)

// Table is an ordered set of named string columns, one slice per row.
// Empty cells mark missing values.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of col, or -1.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether col is present.
func (t *Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Value returns the cell at row/col, "" when the column is absent.
func (t *Table) Value(row int, col string) string {
	i := t.Index(col)
	if i < 0 || i >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][i]
}

// Float parses the cell at row/col. Missing or non-numeric cells yield NaN.
func (t *Table) Float(row int, col string) float64 {
	return ParseFloat(t.Value(row, col))
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// Reindex returns a table holding exactly cols, in that order. Columns not
// present in t are filled with fill and reported in missing.
func (t *Table) Reindex(cols []string, fill string) (out *Table, missing []string) {
	src := make([]int, len(cols))
	for i, c := range cols {
		src[i] = t.Index(c)
		if src[i] < 0 {
			missing = append(missing, c)
		}
	}

	out = &Table{
		Columns: append([]string(nil), cols...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for r, row := range t.Rows {
		vals := make([]string, len(cols))
		for i, j := range src {
			if j < 0 || j >= len(row) {
				vals[i] = fill
				continue
			}
			vals[i] = row[j]
		}
		out.Rows[r] = vals
	}
	return out, missing
}

// ParseFloat parses a numeric cell; blanks and garbage become NaN.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
