// Package table provides the in-memory tabular relation the pipeline stages
// pass between each other, along with typed row accessors.
//
// A Frame stores every cell as a string; the empty string is the null
// sentinel. CSV sources have no richer representation for a missing value,
// and keeping join keys as opaque strings avoids numeric coercion of ids and
// zip prefixes with leading zeros.
package table

import "fmt"

// Frame is an ordered set of named columns over rows of string cells.
type Frame struct {
	cols []string
	idx  map[string]int
	rows [][]string
}

// New creates an empty Frame with the given column names.
func New(cols []string) *Frame {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return &Frame{
		cols: append([]string(nil), cols...),
		idx:  idx,
	}
}

// Append adds a row. Short rows are padded with nulls, long rows truncated,
// so a ragged CSV line cannot corrupt column alignment.
func (f *Frame) Append(row []string) {
	r := make([]string, len(f.cols))
	copy(r, row)
	f.rows = append(f.rows, r)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

// Col returns the index of a named column.
func (f *Frame) Col(name string) (int, bool) {
	i, ok := f.idx[name]
	return i, ok
}

// HasColumn reports whether the frame has a column with the given name.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.idx[name]
	return ok
}

// Row returns an accessor for row i. Panics if i is out of range, matching
// slice semantics; callers iterate 0..Len().
func (f *Frame) Row(i int) Row {
	if i < 0 || i >= len(f.rows) {
		panic(fmt.Sprintf("table: row index %d out of range (%d rows)", i, len(f.rows)))
	}
	return Row{frame: f, i: i}
}

// cells returns the raw backing slice for row i.
func (f *Frame) cells(i int) []string {
	return f.rows[i]
}
