//go:build integration
// +build integration

// Integration tests for the output tables.
// Run with: go test -tags=integration ./internal/marts/...
// Requires PostgreSQL to be available.
// Set OLIST_ETL_TEST_CONN environment variable to override connection string.

package marts_test

import (
	"context"
	"testing"

	"github.com/olist-insights/olist-etl/internal/db"
	"github.com/olist-insights/olist-etl/internal/marts"
	"github.com/olist-insights/olist-etl/internal/pipeline"
	"github.com/olist-insights/olist-etl/internal/table"
	"github.com/olist-insights/olist-etl/internal/testutil"
	// Import mart packages to trigger their init() functions which register the marts
	_ "github.com/olist-insights/olist-etl/internal/marts/delivery"
	_ "github.com/olist-insights/olist-etl/internal/marts/master"
	_ "github.com/olist-insights/olist-etl/internal/marts/product"
	_ "github.com/olist-insights/olist-etl/internal/marts/sales"
	_ "github.com/olist-insights/olist-etl/internal/marts/state"
)

// testMerged builds a small merged relation: two customers in two states,
// the first with an order carrying two items and one payment.
func testMerged() *pipeline.Merged {
	customers := table.New([]string{"customer_id", "customer_state", "customer_city", "customer_zip_code_prefix"})
	customers.Append([]string{"c1", "SP", "sao paulo", "01000"})
	customers.Append([]string{"c2", "RJ", "rio de janeiro", "20000"})

	orders := table.New([]string{"order_id", "customer_id", "order_status", "order_purchase_timestamp", "order_delivered_customer_date"})
	orders.Append([]string{"o1", "c1", "delivered", "2017-10-02 10:00:00", "2017-10-10 12:00:00"})
	orders.Append([]string{"o2", "c2", "shipped", "2017-11-01 09:00:00", ""})

	items := table.New([]string{"order_id", "product_id", "price", "freight_value"})
	items.Append([]string{"o1", "p1", "10.00", "1.00"})
	items.Append([]string{"o1", "p2", "20.00", "2.00"})

	payments := table.New([]string{"order_id", "payment_type", "payment_value"})
	payments.Append([]string{"o1", "credit_card", "33.00"})

	return pipeline.Transform(&pipeline.Sources{
		Customers: customers,
		Orders:    orders,
		Items:     items,
		Payments:  payments,
	})
}

func TestBuildAllMartsIntegration(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)

	testConnStr := testutil.CreateTestDB(t, baseConnStr, "marts")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx := context.Background()
	merged := testMerged()

	expectedRows := map[string]int64{
		"olist_master":     3, // 2 fanned-out rows for o1, 1 for o2
		"sales_summary":    2,
		"delivery_summary": 2,
		"product_summary":  2,
		"state_summary":    2,
	}

	for _, m := range marts.All() {
		t.Run(m.Name(), func(t *testing.T) {
			n, err := m.Build(ctx, pool, merged)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if want := expectedRows[m.TableName()]; n != want {
				t.Errorf("Expected %d rows in %s, got %d", want, m.TableName(), n)
			}

			var count int64
			if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+m.TableName()).Scan(&count); err != nil {
				t.Fatalf("Counting %s: %v", m.TableName(), err)
			}
			if count != n {
				t.Errorf("Build reported %d rows but table holds %d", n, count)
			}
		})
	}

	t.Run("StateRevenue", func(t *testing.T) {
		var revenue float64
		err := pool.QueryRow(ctx, `
            SELECT total_revenue FROM state_summary WHERE customer_state = 'SP'
        `).Scan(&revenue)
		if err != nil {
			t.Fatalf("Reading SP revenue: %v", err)
		}
		// The 33.00 payment fans out over both item rows.
		if revenue != 66.00 {
			t.Errorf("Expected SP revenue 66.00, got %v", revenue)
		}
	})

	t.Run("RebuildIdempotent", func(t *testing.T) {
		for _, m := range marts.All() {
			first, err := m.Build(ctx, pool, merged)
			if err != nil {
				t.Fatalf("Rebuild of %s failed: %v", m.TableName(), err)
			}
			second, err := m.Build(ctx, pool, merged)
			if err != nil {
				t.Fatalf("Second rebuild of %s failed: %v", m.TableName(), err)
			}
			if first != second {
				t.Errorf("%s: repeated builds differ (%d vs %d)", m.TableName(), first, second)
			}
		}
	})
}

func TestRunMetadataIntegration(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)

	testConnStr := testutil.CreateTestDB(t, baseConnStr, "runs")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx := context.Background()

	err := db.RecordRun(ctx, pool, db.RunRecord{
		Status: db.RunStatusSucceeded,
		Tables: map[string]int64{"olist_master": 3, "state_summary": 2},
	})
	if err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	last, err := db.LastRun(ctx, pool)
	if err != nil {
		t.Fatalf("LastRun failed: %v", err)
	}
	if last.Status != db.RunStatusSucceeded {
		t.Errorf("Expected succeeded, got %s", last.Status)
	}
	if last.Tables["olist_master"] != 3 {
		t.Errorf("Expected recorded count 3, got %d", last.Tables["olist_master"])
	}
}
