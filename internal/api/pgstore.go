package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/olist-insights/olist-etl/internal/db"
)

// undefinedTable is the PostgreSQL error code raised when querying a table
// that does not exist.
const undefinedTable = "42P01"

// PGStore implements Store against the warehouse pool.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Store backed by pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Ping checks database reachability.
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// TableRows reads from table with exact-match filters. The table and column
// names are trusted; they come from the compiled-in endpoint definitions,
// only the filter values originate from the request.
func (s *PGStore) TableRows(ctx context.Context, table string, filters Filters, page Page) ([]map[string]any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s", table)

	args := make([]any, 0, len(filters)+2)
	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	// Map order is random; a stable order keeps queries cacheable.
	sort.Strings(cols)

	for i, col := range cols {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, filters[col])
		fmt.Fprintf(&sb, "%s = $%d", col, len(args))
	}

	args = append(args, page.Limit)
	fmt.Fprintf(&sb, " ORDER BY 1 LIMIT $%d", len(args))
	args = append(args, page.Offset)
	fmt.Fprintf(&sb, " OFFSET $%d", len(args))

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapTableErr(table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := []map[string]any{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", table, err)
		}
		record := make(map[string]any, len(fields))
		for i, fd := range fields {
			record[fd.Name] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, mapTableErr(table, err)
	}

	return out, nil
}

// Summary aggregates state_summary plus the last recorded run.
func (s *PGStore) Summary(ctx context.Context) (*SummaryStats, error) {
	stats := &SummaryStats{}

	err := s.pool.QueryRow(ctx, `
        SELECT COALESCE(SUM(total_customers), 0),
               COALESCE(SUM(total_orders), 0),
               COALESCE(SUM(total_revenue), 0)
        FROM state_summary
    `).Scan(&stats.TotalCustomers, &stats.TotalOrders, &stats.TotalRevenue)
	if err != nil {
		return nil, mapTableErr("state_summary", err)
	}
	if stats.TotalOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / float64(stats.TotalOrders)
	}

	rows, err := s.pool.Query(ctx, `
        SELECT customer_state, total_revenue
        FROM state_summary
        ORDER BY total_revenue DESC
        LIMIT 10
    `)
	if err != nil {
		return nil, mapTableErr("state_summary", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sr StateRevenue
		if err := rows.Scan(&sr.State, &sr.Revenue); err != nil {
			return nil, err
		}
		stats.TopStates = append(stats.TopStates, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Run metadata is best effort; the summary is still useful without it.
	last, err := db.LastRun(ctx, s.pool)
	switch {
	case err == nil:
		stats.LastRun = &RunInfo{
			RunID:      last.RunID.String(),
			Version:    last.Version,
			Status:     last.Status,
			FinishedAt: last.FinishedAt,
			Tables:     last.Tables,
		}
	case errors.Is(err, pgx.ErrNoRows) || isUndefinedTable(err):
	default:
		return nil, err
	}

	return stats, nil
}

func mapTableErr(table string, err error) error {
	if isUndefinedTable(err) {
		return fmt.Errorf("%w: %s", ErrTableMissing, table)
	}
	return fmt.Errorf("querying %s: %w", table, err)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
