package pipeline

import "github.com/olist-insights/olist-etl/internal/table"

// LeftJoin performs a hash left-outer join of left and right on key. Keys
// are compared as opaque strings. Every left row survives; when no right
// row matches, the right-side columns are null-filled, and when several
// match, the left row fans out once per match.
//
// Right columns already present on the left (including the key) are dropped,
// so colliding names always resolve to the left relation's values.
func LeftJoin(left, right *table.Frame, key string) *table.Frame {
	// Right-side columns carried into the output.
	rightCols := make([]string, 0, len(right.Columns()))
	for _, c := range right.Columns() {
		if c == key || left.HasColumn(c) {
			continue
		}
		rightCols = append(rightCols, c)
	}

	out := table.New(append(left.Columns(), rightCols...))

	// Null join keys never match anything; they fall through to null-fill.
	index := make(map[string][]int)
	for i := 0; i < right.Len(); i++ {
		k, ok := right.Row(i).String(key)
		if !ok {
			continue
		}
		index[k] = append(index[k], i)
	}

	nulls := make([]string, len(rightCols))

	for i := 0; i < left.Len(); i++ {
		leftCells := rowCells(left, i)

		k, ok := left.Row(i).String(key)
		if !ok {
			out.Append(append(leftCells, nulls...))
			continue
		}

		matches := index[k]
		if len(matches) == 0 {
			out.Append(append(leftCells, nulls...))
			continue
		}

		for _, ri := range matches {
			row := right.Row(ri)
			cells := make([]string, 0, len(leftCells)+len(rightCols))
			cells = append(cells, leftCells...)
			for _, c := range rightCols {
				cells = append(cells, row.StringOr(c, ""))
			}
			out.Append(cells)
		}
	}

	return out
}
