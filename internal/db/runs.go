package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/olist-insights/olist-etl/internal/logging"
	"github.com/olist-insights/olist-etl/pkg/version"
)

// Run statuses recorded in etl_runs.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

const createRunTablesSQL = `
CREATE TABLE IF NOT EXISTS etl_runs (
    run_id       UUID PRIMARY KEY,
    version      TEXT NOT NULL,
    status       TEXT NOT NULL,
    failed_stage TEXT,
    started_at   TIMESTAMPTZ NOT NULL,
    finished_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS etl_run_tables (
    run_id     UUID NOT NULL REFERENCES etl_runs(run_id) ON DELETE CASCADE,
    table_name TEXT NOT NULL,
    row_count  BIGINT NOT NULL,
    PRIMARY KEY (run_id, table_name)
)`

// RunRecord describes one recorded pipeline run.
type RunRecord struct {
	RunID       uuid.UUID
	Version     string
	Status      string
	FailedStage string
	StartedAt   time.Time
	FinishedAt  time.Time
	Tables      map[string]int64
}

// RecordRun persists a run outcome. Tables maps output table name to the
// number of rows persisted for tables that were successfully rebuilt.
func RecordRun(ctx context.Context, pool *pgxpool.Pool, rec RunRecord) error {
	if _, err := pool.Exec(ctx, createRunTablesSQL); err != nil {
		return fmt.Errorf("failed to create run metadata tables: %w", err)
	}

	if rec.RunID == uuid.Nil {
		rec.RunID = uuid.New()
	}
	if rec.Version == "" {
		rec.Version = version.Short()
	}

	var failedStage any
	if rec.FailedStage != "" {
		failedStage = rec.FailedStage
	}

	_, err := pool.Exec(ctx, `
        INSERT INTO etl_runs (run_id, version, status, failed_stage, started_at, finished_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, rec.RunID, rec.Version, rec.Status, failedStage, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for name, count := range rec.Tables {
		_, err := pool.Exec(ctx, `
            INSERT INTO etl_run_tables (run_id, table_name, row_count)
            VALUES ($1, $2, $3)
        `, rec.RunID, name, count)
		if err != nil {
			return fmt.Errorf("failed to record table count for %s: %w", name, err)
		}
	}

	logging.Debug().
		Str("run_id", rec.RunID.String()).
		Str("status", rec.Status).
		Msg("Recorded run")

	return nil
}

// LastRun returns the most recently finished run, or nil when no run has
// been recorded yet.
func LastRun(ctx context.Context, pool *pgxpool.Pool) (*RunRecord, error) {
	var rec RunRecord
	var failedStage *string

	err := pool.QueryRow(ctx, `
        SELECT run_id, version, status, failed_stage, started_at, finished_at
        FROM etl_runs
        ORDER BY finished_at DESC
        LIMIT 1
    `).Scan(&rec.RunID, &rec.Version, &rec.Status, &failedStage, &rec.StartedAt, &rec.FinishedAt)
	if err != nil {
		return nil, err
	}
	if failedStage != nil {
		rec.FailedStage = *failedStage
	}

	rows, err := pool.Query(ctx, `
        SELECT table_name, row_count FROM etl_run_tables WHERE run_id = $1
    `, rec.RunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rec.Tables = make(map[string]int64)
	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		rec.Tables[name] = count
	}

	return &rec, rows.Err()
}
