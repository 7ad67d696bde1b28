// Package delivery builds the per-state delivery_summary table.
//
// Unlike the other summaries it aggregates the cleaned orders relation, not
// the merged one: the merged relation repeats each order once per item and
// payment, which would weight delivery latency by basket size.
package delivery

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/olist-insights/olist-etl/internal/logging"
	"github.com/olist-insights/olist-etl/internal/marts"
	"github.com/olist-insights/olist-etl/internal/pipeline"
	"github.com/olist-insights/olist-etl/internal/stats"
	"github.com/olist-insights/olist-etl/internal/table"
)

// Summary is one delivery_summary row. The latency statistics are nil when
// a state has no delivered orders; delivery_rate is always present.
type Summary struct {
	CustomerState   string
	TotalOrders     int64
	DeliveredOrders int64
	DeliveryRate    float64
	AvgDays         *float64
	MedianDays      *float64
	FastestDays     *int64
	SlowestDays     *int64
	StdDays         *float64
}

// Mart implements marts.Mart for the delivery summary.
type Mart struct{}

// New creates the delivery mart.
func New() *Mart { return &Mart{} }

func (m *Mart) Name() string        { return "delivery" }
func (m *Mart) TableName() string   { return "delivery_summary" }
func (m *Mart) Description() string { return "Per-state delivery latency and delivery-rate statistics" }

// CreateSchema creates the table and index.
func (m *Mart) CreateSchema(ctx context.Context, db marts.DB) error {
	_, err := db.Exec(ctx, createSchemaSQL)
	return err
}

// Drop removes the table.
func (m *Mart) Drop(ctx context.Context, db marts.DB) error {
	_, err := db.Exec(ctx, "DROP TABLE IF EXISTS delivery_summary")
	return err
}

// DeliveryDays computes the whole-day delivery latency of one order row, or
// ok=false when either timestamp is null or unparseable.
func DeliveryDays(row table.Row) (float64, bool) {
	purchased, ok := row.Time("order_purchase_timestamp")
	if !ok {
		return 0, false
	}
	delivered, ok := row.Time("order_delivered_customer_date")
	if !ok {
		return 0, false
	}
	return math.Floor(delivered.Sub(purchased).Hours() / 24), true
}

// Summarize joins cleaned orders to customers to attach the state, then
// groups by customer_state. Orders whose state is null are excluded. A
// group with zero orders cannot arise from grouping, but the rate
// calculation still guards the division and falls back to 0.
func Summarize(orders, customers *table.Frame) []Summary {
	joined := pipeline.LeftJoin(orders, customers, "customer_id")

	type acc struct {
		total int64
		days  []float64
	}
	groups := make(map[string]*acc)

	for i := 0; i < joined.Len(); i++ {
		row := joined.Row(i)

		state, ok := row.String("customer_state")
		if !ok {
			continue
		}

		a := groups[state]
		if a == nil {
			a = &acc{}
			groups[state] = a
		}
		a.total++

		if d, ok := DeliveryDays(row); ok {
			a.days = append(a.days, d)
		}
	}

	out := make([]Summary, 0, len(groups))
	for state, a := range groups {
		s := Summary{
			CustomerState:   state,
			TotalOrders:     a.total,
			DeliveredOrders: int64(len(a.days)),
		}
		if a.total > 0 {
			s.DeliveryRate = float64(len(a.days)) / float64(a.total) * 100
		}
		if mean, ok := stats.Mean(a.days); ok {
			s.AvgDays = &mean
		}
		if median, ok := stats.Median(a.days); ok {
			s.MedianDays = &median
		}
		if min, ok := stats.Min(a.days); ok {
			v := int64(min)
			s.FastestDays = &v
		}
		if max, ok := stats.Max(a.days); ok {
			v := int64(max)
			s.SlowestDays = &v
		}
		if std, ok := stats.StdDevPop(a.days); ok {
			s.StdDays = &std
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CustomerState < out[j].CustomerState })
	return out
}

// Build rebuilds delivery_summary from the cleaned orders and customers.
func (m *Mart) Build(ctx context.Context, db marts.DB, merged *pipeline.Merged) (int64, error) {
	if err := marts.Rebuild(ctx, db, m.TableName(), createSchemaSQL); err != nil {
		return 0, err
	}

	summaries := Summarize(merged.Orders, merged.Customers)
	rows := make([][]any, len(summaries))
	for i, s := range summaries {
		rows[i] = []any{
			s.CustomerState, s.TotalOrders, s.DeliveredOrders, s.DeliveryRate,
			s.AvgDays, s.MedianDays, s.FastestDays, s.SlowestDays, s.StdDays,
		}
	}

	n, err := db.CopyFrom(ctx, pgx.Identifier{m.TableName()}, copyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("%w: writing delivery_summary: %w", marts.ErrPersistence, err)
	}

	logging.Info().Int64("rows", n).Msg("Delivery summary loaded")
	return n, nil
}

func init() {
	marts.Register(New())
}
