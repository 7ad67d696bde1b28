package table

import (
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when parsing timestamp cells. The olist
// datasets use "2006-01-02 15:04:05" exclusively; the others cover exports
// that round-trip through other tools.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// Row is a read-only view of one Frame row with safe typed accessors.
// Every accessor has an explicit fallback policy instead of failing:
// a missing column and a null cell are treated identically.
type Row struct {
	frame *Frame
	i     int
}

// IsNull reports whether the cell is absent or null.
func (r Row) IsNull(col string) bool {
	i, ok := r.frame.idx[col]
	if !ok {
		return true
	}
	return r.frame.cells(r.i)[i] == ""
}

// String returns the raw cell value; ok is false when the column is missing
// or the cell is null.
func (r Row) String(col string) (string, bool) {
	i, ok := r.frame.idx[col]
	if !ok {
		return "", false
	}
	v := r.frame.cells(r.i)[i]
	if v == "" {
		return "", false
	}
	return v, true
}

// StringOr returns the cell value or def when missing/null.
func (r Row) StringOr(col, def string) string {
	if v, ok := r.String(col); ok {
		return v
	}
	return def
}

// Float parses the cell as a float64, returning def when the column is
// missing, the cell is null, or the value is not numeric.
func (r Row) Float(col string, def float64) float64 {
	v, ok := r.String(col)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// Time parses the cell as a timestamp; ok is false when the column is
// missing, the cell is null, or no layout matches.
func (r Row) Time(col string) (time.Time, bool) {
	v, ok := r.String(col)
	if !ok {
		return time.Time{}, false
	}
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
