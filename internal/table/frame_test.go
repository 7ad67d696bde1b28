package table

import (
	"testing"
	"time"
)

func TestAppendPadsAndTruncates(t *testing.T) {
	f := New([]string{"a", "b", "c"})

	f.Append([]string{"1"})                     // short: padded
	f.Append([]string{"1", "2", "3", "extra"}) // long: truncated

	if f.Len() != 2 {
		t.Fatalf("Expected 2 rows, got %d", f.Len())
	}
	if !f.Row(0).IsNull("b") || !f.Row(0).IsNull("c") {
		t.Error("Short row should be null-padded")
	}
	if v, _ := f.Row(1).String("c"); v != "3" {
		t.Errorf("Expected c='3', got '%s'", v)
	}
}

func TestRowString(t *testing.T) {
	f := New([]string{"order_id", "customer_state"})
	f.Append([]string{"o1", ""})

	row := f.Row(0)

	if v, ok := row.String("order_id"); !ok || v != "o1" {
		t.Errorf("Expected ('o1', true), got ('%s', %v)", v, ok)
	}
	if _, ok := row.String("customer_state"); ok {
		t.Error("Null cell should report ok=false")
	}
	if _, ok := row.String("no_such_column"); ok {
		t.Error("Missing column should report ok=false")
	}
	if v := row.StringOr("customer_state", "??"); v != "??" {
		t.Errorf("Expected fallback '??', got '%s'", v)
	}
}

func TestRowFloat(t *testing.T) {
	f := New([]string{"price", "freight_value", "note"})
	f.Append([]string{"10.50", "", "not a number"})

	row := f.Row(0)

	tests := []struct {
		col  string
		def  float64
		want float64
	}{
		{"price", 0, 10.50},
		{"freight_value", 0, 0},      // null
		{"note", 0, 0},               // non-numeric
		{"missing", 7.5, 7.5},        // absent column
		{"freight_value", -1, -1},    // null with custom default
	}

	for _, tt := range tests {
		if got := row.Float(tt.col, tt.def); got != tt.want {
			t.Errorf("Float(%q, %v) = %v, want %v", tt.col, tt.def, got, tt.want)
		}
	}
}

func TestRowTime(t *testing.T) {
	f := New([]string{"purchase", "delivered", "bad", "dateonly"})
	f.Append([]string{"2017-10-02 10:56:33", "", "02/10/2017", "2017-10-10"})

	row := f.Row(0)

	ts, ok := row.Time("purchase")
	if !ok {
		t.Fatal("Expected purchase timestamp to parse")
	}
	want := time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("Expected %v, got %v", want, ts)
	}

	if _, ok := row.Time("delivered"); ok {
		t.Error("Null cell should not parse as time")
	}
	if _, ok := row.Time("bad"); ok {
		t.Error("Unsupported layout should not parse")
	}
	if _, ok := row.Time("dateonly"); !ok {
		t.Error("Date-only cell should parse")
	}
}

func TestIsNull(t *testing.T) {
	f := New([]string{"a"})
	f.Append([]string{""})
	f.Append([]string{"x"})

	if !f.Row(0).IsNull("a") {
		t.Error("Empty cell should be null")
	}
	if f.Row(1).IsNull("a") {
		t.Error("Non-empty cell should not be null")
	}
	if !f.Row(1).IsNull("b") {
		t.Error("Missing column should be null")
	}
}
