// Package marts defines the output-table interface and registry. Each mart
// owns exactly one table in the warehouse: it can create its schema, drop
// it, and rebuild its full contents from a pipeline run's merged relation.
package marts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/olist-insights/olist-etl/internal/pipeline"
)

// ErrPersistence marks a failed write to the warehouse. Unlike row-level
// coercion failures, which are absorbed and counted, a persistence failure
// aborts the build.
var ErrPersistence = errors.New("persistence failure")

// DB is the subset of pgx behavior the marts need. Both *pgxpool.Pool and
// *pgx.Conn satisfy it, so builds can run on the shared pool or on a
// dedicated connection.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Mart is the interface every output table implements.
type Mart interface {
	// Name is the registry key (e.g. "sales").
	Name() string

	// TableName is the warehouse table this mart owns.
	TableName() string

	// Description is a human-readable summary for the CLI listing.
	Description() string

	// CreateSchema creates the mart's table and indexes.
	CreateSchema(ctx context.Context, db DB) error

	// Drop removes the mart's table.
	Drop(ctx context.Context, db DB) error

	// Build rebuilds the table wholesale from the merged relation and
	// returns the number of rows persisted. The previous contents are
	// dropped first, so a failed build leaves the table absent, not stale.
	Build(ctx context.Context, db DB, m *pipeline.Merged) (int64, error)
}

// Rebuild drops a mart's table and recreates it from its DDL. Called at the
// start of every Build to give each run wholesale-replace semantics.
func Rebuild(ctx context.Context, db DB, tableName, createSQL string) error {
	if _, err := db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)); err != nil {
		return fmt.Errorf("%w: dropping %s: %w", ErrPersistence, tableName, err)
	}
	if _, err := db.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrPersistence, tableName, err)
	}
	return nil
}
