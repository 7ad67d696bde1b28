// Package product builds the per-product product_summary table.
package product

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

// Summary is one product_summary row.
type Summary struct {
	ProductID      string
	TotalOrders    int64
	TotalItemsSold int64
	TotalRevenue   float64
	AvgPrice       float64
	TotalFreight   float64
	AvgFreight     float64
}

// Mart implements marts.Mart for the product summary.
type Mart struct{}

// New creates the product mart.
func New() *Mart { return &Mart{} }

func (m *Mart) Name() string        { return "product" }
func (m *Mart) TableName() string   { return "product_summary" }
func (m *Mart) Description() string { return "Per-product order, revenue and freight aggregates" }

// CreateSchema creates the table and index.
func (m *Mart) CreateSchema(ctx context.Context, db marts.DB) error {
	_, err := db.Exec(ctx, createSchemaSQL)
	return err
}

// Drop removes the table.
func (m *Mart) Drop(ctx context.Context, db marts.DB) error {
	_, err := db.Exec(ctx, "DROP TABLE IF EXISTS product_summary")
	return err
}

// Summarize groups the merged relation by product_id. Rows with a null
// product_id (orders that matched no item) are excluded: a product summary
// has nothing meaningful to say about a non-product.
func Summarize(merged *table.Frame) []Summary {
	type acc struct {
		orders     map[string]struct{}
		items      int64
		revenue    float64
		prices     int64
		freightSum float64
		freights   int64
	}
	groups := make(map[string]*acc)

	for i := 0; i < merged.Len(); i++ {
		row := merged.Row(i)

		productID, ok := row.String("product_id")
		if !ok {
			continue
		}

		a := groups[productID]
		if a == nil {
			a = &acc{orders: make(map[string]struct{})}
			groups[productID] = a
		}

		if orderID, ok := row.String("order_id"); ok {
			a.orders[orderID] = struct{}{}
		}
		a.items++

		if !row.IsNull("price") {
			a.revenue += row.Float("price", 0)
			a.prices++
		}
		if !row.IsNull("freight_value") {
			a.freightSum += row.Float("freight_value", 0)
			a.freights++
		}
	}

	out := make([]Summary, 0, len(groups))
	for productID, a := range groups {
		s := Summary{
			ProductID:      productID,
			TotalOrders:    int64(len(a.orders)),
			TotalItemsSold: a.items,
			TotalRevenue:   a.revenue,
			TotalFreight:   a.freightSum,
		}
		if a.prices > 0 {
			s.AvgPrice = a.revenue / float64(a.prices)
		}
		if a.freights > 0 {
			s.AvgFreight = a.freightSum / float64(a.freights)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Build rebuilds product_summary from the merged relation.
func (m *Mart) Build(ctx context.Context, db marts.DB, merged *pipeline.Merged) (int64, error) {
	if err := marts.Rebuild(ctx, db, m.TableName(), createSchemaSQL); err != nil {
		return 0, err
	}

	summaries := Summarize(merged.Frame)
	rows := make([][]any, len(summaries))
	for i, s := range summaries {
		rows[i] = []any{
			s.ProductID, s.TotalOrders, s.TotalItemsSold,
			s.TotalRevenue, s.AvgPrice, s.TotalFreight, s.AvgFreight,
		}
	}

	n, err := db.CopyFrom(ctx, pgx.Identifier{m.TableName()}, copyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("%w: writing product_summary: %w", marts.ErrPersistence, err)
	}

	logging.Info().Int64("rows", n).Msg("Product summary loaded")
	return n, nil
}

func init() {
	marts.Register(New())
}
