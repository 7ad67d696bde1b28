package pipeline

import "github.com/olist-insights/olist-etl/internal/table"

// Clean returns a copy of f retaining only rows where every column in
// required is non-null. A required column missing from the frame entirely
// excludes all rows. Clean never fails; empty input yields empty output.
func Clean(f *table.Frame, required ...string) *table.Frame {
	out := table.New(f.Columns())

	for _, name := range required {
		if !f.HasColumn(name) {
			return out
		}
	}

	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		keep := true
		for _, name := range required {
			if row.IsNull(name) {
				keep = false
				break
			}
		}
		if keep {
			out.Append(rowCells(f, i))
		}
	}
	return out
}

// rowCells copies the raw cells of row i.
func rowCells(f *table.Frame, i int) []string {
	row := f.Row(i)
	cols := f.Columns()
	cells := make([]string, len(cols))
	for j, c := range cols {
		cells[j] = row.StringOr(c, "")
	}
	return cells
}
