package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olist-insights/olist-etl/internal/table"
)

// Test fixture: 2 customers, 3 orders. Order o1 has 2 items and 2 payments
// (fans out to 4 rows), o2 has 1 item and no payments, o3 has neither.
func fixtureSources() *Sources {
	customers := table.New([]string{"customer_id", "customer_city", "customer_state", "customer_zip_code_prefix"})
	customers.Append([]string{"c1", "sao paulo", "SP", "01000"})
	customers.Append([]string{"c2", "rio de janeiro", "RJ", "20000"})
	customers.Append([]string{"", "ghost town", "XX", "99999"}) // dropped by cleaner

	orders := table.New([]string{"order_id", "customer_id", "order_status", "order_purchase_timestamp", "order_delivered_customer_date"})
	orders.Append([]string{"o1", "c1", "delivered", "2017-10-02 10:56:33", "2017-10-10 21:25:13"})
	orders.Append([]string{"o2", "c2", "shipped", "2017-11-18 19:28:06", ""})
	orders.Append([]string{"o3", "c1", "canceled", "2018-02-13 21:18:39", ""})
	orders.Append([]string{"o4", "", "delivered", "2018-01-01 00:00:00", "2018-01-05 00:00:00"}) // dropped: no customer_id

	items := table.New([]string{"order_id", "product_id", "price", "freight_value"})
	items.Append([]string{"o1", "p1", "10.00", "2.50"})
	items.Append([]string{"o1", "p2", "20.00", "3.50"})
	items.Append([]string{"o2", "p1", "15.00", "1.00"})
	items.Append([]string{"", "p9", "99.00", "9.00"}) // dropped: no order_id

	payments := table.New([]string{"order_id", "payment_type", "payment_value"})
	payments.Append([]string{"o1", "credit_card", "18.00"})
	payments.Append([]string{"o1", "voucher", "18.00"})
	payments.Append([]string{"o2", "boleto", "16.00"})

	return &Sources{Customers: customers, Orders: orders, Items: items, Payments: payments}
}

func TestCleanIsExclusionary(t *testing.T) {
	src := fixtureSources()

	cleaned := Clean(src.Orders, "order_id", "customer_id")

	if cleaned.Len() > src.Orders.Len() {
		t.Error("Cleaning must not add rows")
	}
	if cleaned.Len() != 3 {
		t.Fatalf("Expected 3 cleaned orders, got %d", cleaned.Len())
	}
	for i := 0; i < cleaned.Len(); i++ {
		row := cleaned.Row(i)
		if row.IsNull("order_id") || row.IsNull("customer_id") {
			t.Errorf("Row %d still has a null required column", i)
		}
	}
}

func TestCleanEmptyInput(t *testing.T) {
	empty := table.New([]string{"order_id"})
	cleaned := Clean(empty, "order_id")
	if cleaned.Len() != 0 {
		t.Errorf("Expected empty output, got %d rows", cleaned.Len())
	}
}

func TestCleanMissingRequiredColumn(t *testing.T) {
	f := table.New([]string{"a"})
	f.Append([]string{"x"})
	cleaned := Clean(f, "order_id")
	if cleaned.Len() != 0 {
		t.Errorf("Missing required column should exclude all rows, got %d", cleaned.Len())
	}
}

func TestLeftJoinCompleteness(t *testing.T) {
	m := Transform(fixtureSources())

	// Every cleaned order must appear in the merged relation.
	for i := 0; i < m.Orders.Len(); i++ {
		orderID, _ := m.Orders.Row(i).String("order_id")
		found := false
		for j := 0; j < m.Frame.Len(); j++ {
			if id, _ := m.Frame.Row(j).String("order_id"); id == orderID {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Order %s was dropped by the left join", orderID)
		}
	}
}

func TestFanOut(t *testing.T) {
	m := Transform(fixtureSources())

	counts := map[string]int{}
	for i := 0; i < m.Frame.Len(); i++ {
		id, _ := m.Frame.Row(i).String("order_id")
		counts[id]++
	}

	// o1: 2 items x 2 payments = 4; o2: 1 item x 1 payment = 1;
	// o3: no items, no payments = 1 null-filled row.
	if counts["o1"] != 4 {
		t.Errorf("Expected 4 rows for o1, got %d", counts["o1"])
	}
	if counts["o2"] != 1 {
		t.Errorf("Expected 1 row for o2, got %d", counts["o2"])
	}
	if counts["o3"] != 1 {
		t.Errorf("Expected 1 row for o3, got %d", counts["o3"])
	}
	if m.Frame.Len() != 6 {
		t.Errorf("Expected 6 merged rows, got %d", m.Frame.Len())
	}
}

func TestLeftJoinNullFill(t *testing.T) {
	m := Transform(fixtureSources())

	for i := 0; i < m.Frame.Len(); i++ {
		row := m.Frame.Row(i)
		if id, _ := row.String("order_id"); id == "o3" {
			if !row.IsNull("product_id") {
				t.Error("o3 has no items; product_id should be null")
			}
			if !row.IsNull("payment_type") {
				t.Error("o3 has no payments; payment_type should be null")
			}
			if v, _ := row.String("customer_state"); v != "SP" {
				t.Errorf("o3 should join to customer c1 (SP), got '%s'", v)
			}
		}
	}
}

func TestLeftJoinColumnCollision(t *testing.T) {
	left := table.New([]string{"k", "v"})
	left.Append([]string{"1", "left"})

	right := table.New([]string{"k", "v", "extra"})
	right.Append([]string{"1", "right", "e"})

	out := LeftJoin(left, right, "k")

	if out.Len() != 1 {
		t.Fatalf("Expected 1 row, got %d", out.Len())
	}
	if v, _ := out.Row(0).String("v"); v != "left" {
		t.Errorf("Colliding column should keep the left value, got '%s'", v)
	}
	if v, _ := out.Row(0).String("extra"); v != "e" {
		t.Errorf("Expected right-only column to carry over, got '%s'", v)
	}

	cols := out.Columns()
	if len(cols) != 3 {
		t.Errorf("Expected 3 output columns, got %v", cols)
	}
}

func TestLeftJoinOpaqueStringKeys(t *testing.T) {
	// Leading zeros must not match numerically-equal keys.
	left := table.New([]string{"k"})
	left.Append([]string{"01000"})

	right := table.New([]string{"k", "v"})
	right.Append([]string{"1000", "wrong"})

	out := LeftJoin(left, right, "k")
	if !out.Row(0).IsNull("v") {
		t.Error("Key '01000' must not match '1000'")
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(context.Background(), dir)
	if err == nil {
		t.Fatal("Expected error for missing source files")
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		CustomersFile: "customer_id,customer_city,customer_state,customer_zip_code_prefix\nc1,sao paulo,SP,01000\n",
		OrdersFile:    "order_id,customer_id,order_status,order_purchase_timestamp,order_delivered_customer_date\no1,c1,delivered,2017-10-02 10:56:33,2017-10-10 21:25:13\n",
		ItemsFile:     "order_id,product_id,price,freight_value\no1,p1,10.00,2.50\n",
		PaymentsFile:  "order_id,payment_type,payment_value\no1,credit_card,12.50\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	src, err := Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if src.Customers.Len() != 1 || src.Orders.Len() != 1 || src.Items.Len() != 1 || src.Payments.Len() != 1 {
		t.Errorf("Unexpected row counts: %d %d %d %d",
			src.Customers.Len(), src.Orders.Len(), src.Items.Len(), src.Payments.Len())
	}
	if v, _ := src.Customers.Row(0).String("customer_zip_code_prefix"); v != "01000" {
		t.Errorf("Zip prefix should keep its leading zero, got '%s'", v)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	r := Retry{Attempts: 3, Delay: time.Millisecond}

	err := r.Do(context.Background(), "extract", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	r := Retry{Attempts: 2, Delay: time.Millisecond}

	err := r.Do(context.Background(), "extract", func(ctx context.Context) error {
		calls++
		return errors.New("persistent")
	})
	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	r := Retry{Attempts: 5, Delay: time.Minute}

	err := r.Do(ctx, "extract", func(ctx context.Context) error {
		calls++
		return ctx.Err()
	})
	if err == nil {
		t.Fatal("Expected error from cancelled context")
	}
	if calls != 1 {
		t.Errorf("Cancelled context should not retry, got %d calls", calls)
	}
}
