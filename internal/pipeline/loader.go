package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/olist-insights/olist-etl/internal/logging"
	"github.com/olist-insights/olist-etl/internal/table"
)

// The four dataset files the loader expects under the data directory. The
// seeder writes the same names so a seeded directory is directly loadable.
const (
	CustomersFile = "olist_customers_dataset.csv"
	OrdersFile    = "olist_orders_dataset.csv"
	ItemsFile     = "olist_order_items_dataset.csv"
	PaymentsFile  = "olist_order_payments_dataset.csv"
)

// Load reads the four datasets from dir. The header row of each file defines
// its columns. No row filtering happens here; cleaning is a separate stage.
// A missing or unreadable file yields an error wrapping ErrSourceUnavailable.
func Load(ctx context.Context, dir string) (*Sources, error) {
	customers, err := loadCSV(ctx, filepath.Join(dir, CustomersFile))
	if err != nil {
		return nil, err
	}
	orders, err := loadCSV(ctx, filepath.Join(dir, OrdersFile))
	if err != nil {
		return nil, err
	}
	items, err := loadCSV(ctx, filepath.Join(dir, ItemsFile))
	if err != nil {
		return nil, err
	}
	payments, err := loadCSV(ctx, filepath.Join(dir, PaymentsFile))
	if err != nil {
		return nil, err
	}

	logging.Info().
		Int("customers", customers.Len()).
		Int("orders", orders.Len()).
		Int("order_items", items.Len()).
		Int("payments", payments.Len()).
		Msg("Extracted source datasets")

	return &Sources{
		Customers: customers,
		Orders:    orders,
		Items:     items,
		Payments:  payments,
	}, nil
}

// loadCSV reads one delimited file into a Frame, checking ctx between rows
// so the configured load timeout can interrupt a slow read.
func loadCSV(ctx context.Context, path string) (*table.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows; Frame pads/truncates

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading header: %v", ErrSourceUnavailable, filepath.Base(path), err)
	}

	frame := table.New(header)
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, filepath.Base(path), err)
		}
		frame.Append(record)
	}

	logging.Debug().
		Str("file", filepath.Base(path)).
		Int("rows", frame.Len()).
		Msg("Loaded dataset")

	return frame, nil
}
