// Package api serves the materialized tables over a read-only HTTP API.
package api

import (
	"context"
	"errors"
	"time"
)

// ErrTableMissing marks a query against a table the pipeline has not
// materialized yet. Handlers translate it to 503.
var ErrTableMissing = errors.New("table not materialized")

// Filters maps column names to exact-match values. Keys come from the
// per-endpoint whitelists in server.go, never from the request directly.
type Filters map[string]string

// Page bounds a table read.
type Page struct {
	Limit  int
	Offset int
}

// StateRevenue is one entry of the top-states breakdown.
type StateRevenue struct {
	State   string  `json:"state"`
	Revenue float64 `json:"revenue"`
}

// RunInfo is the subset of run metadata exposed over the API.
type RunInfo struct {
	RunID      string           `json:"run_id"`
	Version    string           `json:"version"`
	Status     string           `json:"status"`
	FinishedAt time.Time        `json:"finished_at"`
	Tables     map[string]int64 `json:"tables,omitempty"`
}

// SummaryStats aggregates the whole warehouse for /stats/summary.
type SummaryStats struct {
	TotalCustomers int64          `json:"total_customers"`
	TotalOrders    int64          `json:"total_orders"`
	TotalRevenue   float64        `json:"total_revenue"`
	AvgOrderValue  float64        `json:"avg_order_value"`
	TopStates      []StateRevenue `json:"top_states"`
	LastRun        *RunInfo       `json:"last_run,omitempty"`
}

// Store is the read side the handlers depend on. The pgx implementation
// lives in pgstore.go; tests substitute a stub.
type Store interface {
	// Ping reports whether the backing database is reachable.
	Ping(ctx context.Context) error

	// TableRows reads rows from one of the materialized tables, applying
	// exact-match filters and pagination. Returns ErrTableMissing when the
	// table does not exist.
	TableRows(ctx context.Context, table string, filters Filters, page Page) ([]map[string]any, error)

	// Summary computes the warehouse-wide statistics.
	Summary(ctx context.Context) (*SummaryStats, error)
}
