// Package master builds the row-level olist_master fact table.
package master

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/olist-insights/olist-etl/internal/logging"
	"github.com/olist-insights/olist-etl/internal/marts"
	"github.com/olist-insights/olist-etl/internal/pipeline"
	"github.com/olist-insights/olist-etl/internal/table"
)

const (
	defaultBatchSize = 1000

	// maxLoggedErrors bounds log volume when many rows fail projection;
	// the total count is still tracked and reported.
	maxLoggedErrors = 5
)

// Fact is one projected master row. Pointer fields map onto nullable
// columns; value fields carry the documented defaults (0 for money columns).
type Fact struct {
	OrderID       string
	CustomerID    string
	CustomerCity  *string
	CustomerState *string
	ZipCodePrefix *string
	OrderStatus   *string
	PurchasedAt   *time.Time
	DeliveredAt   *time.Time
	Price         float64
	FreightValue  float64
	PaymentType   *string
	PaymentValue  float64
	ProductID     *string
}

// Mart implements marts.Mart for the master fact table.
type Mart struct {
	batchSize int
	skipped   int64
}

// New creates the master mart with the default batch size.
func New() *Mart {
	return &Mart{batchSize: defaultBatchSize}
}

func (m *Mart) Name() string        { return "master" }
func (m *Mart) TableName() string   { return "olist_master" }
func (m *Mart) Description() string { return "Row-level fact table over the merged relation" }

// SetBatchSize overrides the rows-per-commit batch size.
func (m *Mart) SetBatchSize(n int) {
	if n > 0 {
		m.batchSize = n
	}
}

// SkippedRows returns the number of rows dropped by the last Build because
// they failed projection.
func (m *Mart) SkippedRows() int64 {
	return m.skipped
}

// CreateSchema creates the table and indexes.
func (m *Mart) CreateSchema(ctx context.Context, db marts.DB) error {
	_, err := db.Exec(ctx, createSchemaSQL)
	return err
}

// Drop removes the table.
func (m *Mart) Drop(ctx context.Context, db marts.DB) error {
	_, err := db.Exec(ctx, "DROP TABLE IF EXISTS olist_master")
	return err
}

// projectRow maps one merged row onto a Fact. It fails only when the row
// lacks the identifiers a fact is keyed by; everything else degrades to a
// null or default per the Row accessor contracts.
func projectRow(row table.Row) (Fact, error) {
	orderID, ok := row.String("order_id")
	if !ok {
		return Fact{}, fmt.Errorf("row has no order_id")
	}
	customerID, ok := row.String("customer_id")
	if !ok {
		return Fact{}, fmt.Errorf("row has no customer_id")
	}

	return Fact{
		OrderID:       orderID,
		CustomerID:    customerID,
		CustomerCity:  optString(row, "customer_city"),
		CustomerState: optString(row, "customer_state"),
		ZipCodePrefix: optString(row, "customer_zip_code_prefix"),
		OrderStatus:   optString(row, "order_status"),
		PurchasedAt:   optTime(row, "order_purchase_timestamp"),
		DeliveredAt:   optTime(row, "order_delivered_customer_date"),
		Price:         row.Float("price", 0),
		FreightValue:  row.Float("freight_value", 0),
		PaymentType:   optString(row, "payment_type"),
		PaymentValue:  row.Float("payment_value", 0),
		ProductID:     optString(row, "product_id"),
	}, nil
}

// Project maps every merged row onto a Fact. Rows that fail projection are
// skipped and counted; the first few failures are logged verbatim.
func Project(merged *table.Frame) ([]Fact, int64) {
	facts := make([]Fact, 0, merged.Len())
	var skipped int64

	for i := 0; i < merged.Len(); i++ {
		fact, err := projectRow(merged.Row(i))
		if err != nil {
			skipped++
			if skipped <= maxLoggedErrors {
				logging.Warn().Int("row", i).Err(err).Msg("Skipping unprojectable row")
			}
			continue
		}
		facts = append(facts, fact)
	}

	return facts, skipped
}

// Build rebuilds olist_master from the merged relation. Writes proceed in
// fixed-size batches, one CopyFrom (and therefore one commit) per batch, so
// a mid-run failure loses at most the uncommitted batch. Projection of the
// next batch overlaps with the write of the current one.
func (m *Mart) Build(ctx context.Context, db marts.DB, merged *pipeline.Merged) (int64, error) {
	if err := marts.Rebuild(ctx, db, m.TableName(), createSchemaSQL); err != nil {
		return 0, err
	}

	m.skipped = 0

	type batch struct {
		rows [][]any
	}
	batches := make(chan batch, 1)

	// Producer: project and chunk. Coercion for batch N+1 proceeds while
	// batch N's write is in flight.
	go func() {
		defer close(batches)
		rows := make([][]any, 0, m.batchSize)
		var skipped int64

		for i := 0; i < merged.Frame.Len(); i++ {
			fact, err := projectRow(merged.Frame.Row(i))
			if err != nil {
				skipped++
				if skipped <= maxLoggedErrors {
					logging.Warn().Int("row", i).Err(err).Msg("Skipping unprojectable row")
				}
				continue
			}
			rows = append(rows, factValues(fact))
			if len(rows) == m.batchSize {
				select {
				case batches <- batch{rows: rows}:
				case <-ctx.Done():
					m.skipped = skipped
					return
				}
				rows = make([][]any, 0, m.batchSize)
			}
		}
		if len(rows) > 0 {
			select {
			case batches <- batch{rows: rows}:
			case <-ctx.Done():
			}
		}
		m.skipped = skipped
	}()

	var written int64
	for b := range batches {
		n, err := db.CopyFrom(ctx, pgx.Identifier{m.TableName()}, copyColumns, pgx.CopyFromRows(b.rows))
		if err != nil {
			return written, fmt.Errorf("%w: writing olist_master batch: %w", marts.ErrPersistence, err)
		}
		written += n
		logging.Debug().
			Int64("rows", written).
			Int("total", merged.Frame.Len()).
			Msg("Master batch committed")
	}
	if err := ctx.Err(); err != nil {
		return written, err
	}

	if m.skipped > 0 {
		logging.Warn().
			Int64("skipped", m.skipped).
			Int64("written", written).
			Msg("Master table loaded with projection errors")
	} else {
		logging.Info().
			Int64("rows", written).
			Msg("Master table loaded")
	}

	return written, nil
}

// factValues orders a Fact's fields to match copyColumns.
func factValues(f Fact) []any {
	return []any{
		f.OrderID,
		f.CustomerID,
		f.CustomerCity,
		f.CustomerState,
		f.ZipCodePrefix,
		f.OrderStatus,
		f.PurchasedAt,
		f.DeliveredAt,
		f.Price,
		f.FreightValue,
		f.PaymentType,
		f.PaymentValue,
		f.ProductID,
	}
}

func optString(row table.Row, col string) *string {
	if v, ok := row.String(col); ok {
		return &v
	}
	return nil
}

func optTime(row table.Row, col string) *time.Time {
	if t, ok := row.Time(col); ok {
		return &t
	}
	return nil
}

func init() {
	marts.Register(New())
}
