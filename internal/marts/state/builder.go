// Package state builds the per-state state_summary table, the primary feed
// for external dashboards. Column names and units are a contract with those
// consumers and must stay stable across runs.
package state

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

// Summary is one state_summary row.
//
// TotalRevenue sums payment_value over the fanned-out merged rows, so a
// payment is counted once per item row it joined to. That mirrors the
// upstream warehouse this schema is contracted against; correcting it would
// silently change every dashboard fed by this table.
type Summary struct {
	CustomerState  string
	TotalCustomers int64
	TotalOrders    int64
	TotalRevenue   float64
	AvgOrderValue  float64
	TotalItems     int64
}

// Mart implements marts.Mart for the state summary.
type Mart struct{}

// New creates the state mart.
func New() *Mart { return &Mart{} }

func (m *Mart) Name() string        { return "state" }
func (m *Mart) TableName() string   { return "state_summary" }
func (m *Mart) Description() string { return "Per-state customer, order and revenue aggregates" }

// CreateSchema creates the table and index.
func (m *Mart) CreateSchema(ctx context.Context, db marts.DB) error {
	_, err := db.Exec(ctx, createSchemaSQL)
	return err
}

// Drop removes the table.
func (m *Mart) Drop(ctx context.Context, db marts.DB) error {
	_, err := db.Exec(ctx, "DROP TABLE IF EXISTS state_summary")
	return err
}

// Summarize groups the merged relation by customer_state; rows with a null
// state are excluded. Customer and order counts are distinct counts; items
// is the raw fanned-out row count.
func Summarize(merged *table.Frame) []Summary {
	type acc struct {
		customers map[string]struct{}
		orders    map[string]struct{}
		revenue   float64
		payments  int64
		items     int64
	}
	groups := make(map[string]*acc)

	for i := 0; i < merged.Len(); i++ {
		row := merged.Row(i)

		state, ok := row.String("customer_state")
		if !ok {
			continue
		}

		a := groups[state]
		if a == nil {
			a = &acc{
				customers: make(map[string]struct{}),
				orders:    make(map[string]struct{}),
			}
			groups[state] = a
		}

		if id, ok := row.String("customer_id"); ok {
			a.customers[id] = struct{}{}
		}
		if id, ok := row.String("order_id"); ok {
			a.orders[id] = struct{}{}
		}
		if !row.IsNull("payment_value") {
			a.revenue += row.Float("payment_value", 0)
			a.payments++
		}
		a.items++
	}

	out := make([]Summary, 0, len(groups))
	for state, a := range groups {
		s := Summary{
			CustomerState:  state,
			TotalCustomers: int64(len(a.customers)),
			TotalOrders:    int64(len(a.orders)),
			TotalRevenue:   a.revenue,
			TotalItems:     a.items,
		}
		if a.payments > 0 {
			s.AvgOrderValue = a.revenue / float64(a.payments)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CustomerState < out[j].CustomerState })
	return out
}

// Build rebuilds state_summary from the merged relation.
func (m *Mart) Build(ctx context.Context, db marts.DB, merged *pipeline.Merged) (int64, error) {
	if err := marts.Rebuild(ctx, db, m.TableName(), createSchemaSQL); err != nil {
		return 0, err
	}

	summaries := Summarize(merged.Frame)
	rows := make([][]any, len(summaries))
	for i, s := range summaries {
		rows[i] = []any{
			s.CustomerState, s.TotalCustomers, s.TotalOrders,
			s.TotalRevenue, s.AvgOrderValue, s.TotalItems,
		}
	}

	n, err := db.CopyFrom(ctx, pgx.Identifier{m.TableName()}, copyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("%w: writing state_summary: %w", marts.ErrPersistence, err)
	}

	logging.Info().Int64("rows", n).Msg("State summary loaded")
	return n, nil
}

func init() {
	marts.Register(New())
}
