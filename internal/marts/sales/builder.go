// Package sales builds the per-customer sales_summary table.
package sales

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/olist-insights/olist-etl/internal/logging"
	"github.com/olist-insights/olist-etl/internal/marts"
	"github.com/olist-insights/olist-etl/internal/pipeline"
	"github.com/olist-insights/olist-etl/internal/table"
)

// Summary is one sales_summary row: aggregates for a distinct
// (customer_id, customer_state, customer_city) triple. Numeric aggregates
// over empty inputs are 0, never null, so downstream consumers can always
// do arithmetic on them.
type Summary struct {
	CustomerID    string
	CustomerState string
	CustomerCity  string
	TotalSpent    float64
	TotalOrders   int64
	TotalItems    int64
	AvgOrderValue float64
	AvgPrice      float64
	AvgFreight    float64
}

// Mart implements marts.Mart for the sales summary.
type Mart struct{}

// New creates the sales mart.
func New() *Mart { return &Mart{} }

func (m *Mart) Name() string        { return "sales" }
func (m *Mart) TableName() string   { return "sales_summary" }
func (m *Mart) Description() string { return "Per-customer spend, order and item aggregates" }

// CreateSchema creates the table and indexes.
func (m *Mart) CreateSchema(ctx context.Context, db marts.DB) error {
	_, err := db.Exec(ctx, createSchemaSQL)
	return err
}

// Drop removes the table.
func (m *Mart) Drop(ctx context.Context, db marts.DB) error {
	_, err := db.Exec(ctx, "DROP TABLE IF EXISTS sales_summary")
	return err
}

type salesAcc struct {
	orders       map[string]struct{}
	items        int64
	spent        float64
	payments     int64 // non-null payment_value count, for the mean
	priceSum     float64
	prices       int64
	freightSum   float64
	freights     int64
}

// Summarize groups the merged relation by the customer triple. Rows where
// any part of the key is null are excluded (the warehouse has no anonymous
// customer bucket). Sums and means run over the fanned-out rows; order
// counts use distinct order ids so item/payment fan-out does not inflate
// them.
func Summarize(merged *table.Frame) []Summary {
	type key struct{ id, state, city string }
	groups := make(map[key]*salesAcc)

	for i := 0; i < merged.Len(); i++ {
		row := merged.Row(i)

		id, ok1 := row.String("customer_id")
		state, ok2 := row.String("customer_state")
		city, ok3 := row.String("customer_city")
		if !ok1 || !ok2 || !ok3 {
			continue
		}

		k := key{id, state, city}
		acc := groups[k]
		if acc == nil {
			acc = &salesAcc{orders: make(map[string]struct{})}
			groups[k] = acc
		}

		if orderID, ok := row.String("order_id"); ok {
			acc.orders[orderID] = struct{}{}
			acc.items++
		}
		if !row.IsNull("payment_value") {
			acc.spent += row.Float("payment_value", 0)
			acc.payments++
		}
		if !row.IsNull("price") {
			acc.priceSum += row.Float("price", 0)
			acc.prices++
		}
		if !row.IsNull("freight_value") {
			acc.freightSum += row.Float("freight_value", 0)
			acc.freights++
		}
	}

	out := make([]Summary, 0, len(groups))
	for k, acc := range groups {
		out = append(out, Summary{
			CustomerID:    k.id,
			CustomerState: k.state,
			CustomerCity:  k.city,
			TotalSpent:    acc.spent,
			TotalOrders:   int64(len(acc.orders)),
			TotalItems:    acc.items,
			AvgOrderValue: meanOrZero(acc.spent, acc.payments),
			AvgPrice:      meanOrZero(acc.priceSum, acc.prices),
			AvgFreight:    meanOrZero(acc.freightSum, acc.freights),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CustomerID != out[j].CustomerID {
			return out[i].CustomerID < out[j].CustomerID
		}
		if out[i].CustomerState != out[j].CustomerState {
			return out[i].CustomerState < out[j].CustomerState
		}
		return out[i].CustomerCity < out[j].CustomerCity
	})
	return out
}

// Build rebuilds sales_summary from the merged relation.
func (m *Mart) Build(ctx context.Context, db marts.DB, merged *pipeline.Merged) (int64, error) {
	if err := marts.Rebuild(ctx, db, m.TableName(), createSchemaSQL); err != nil {
		return 0, err
	}

	summaries := Summarize(merged.Frame)
	rows := make([][]any, len(summaries))
	for i, s := range summaries {
		rows[i] = []any{
			s.CustomerID, s.CustomerState, s.CustomerCity,
			s.TotalSpent, s.TotalOrders, s.TotalItems,
			s.AvgOrderValue, s.AvgPrice, s.AvgFreight,
		}
	}

	n, err := db.CopyFrom(ctx, pgx.Identifier{m.TableName()}, copyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("%w: writing sales_summary: %w", marts.ErrPersistence, err)
	}

	logging.Info().Int64("rows", n).Msg("Sales summary loaded")
	return n, nil
}

func meanOrZero(sum float64, n int64) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func init() {
	marts.Register(New())
}
