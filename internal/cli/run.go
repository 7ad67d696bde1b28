package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/olist-insights/olist-etl/internal/db"
	"github.com/olist-insights/olist-etl/internal/logging"
	"github.com/olist-insights/olist-etl/internal/marts"
	"github.com/olist-insights/olist-etl/internal/pipeline"
)

var (
	runBatchSize    int
	runLoadTimeout  int
	runWriteTimeout int
	runRetries      int
	runRetryDelay   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ETL pipeline once",
	Long: `Load the four olist CSV datasets from the data directory, merge them,
and rebuild the master fact table and the four summary tables in PostgreSQL.
All output tables are dropped and recreated, so repeated runs over the same
inputs converge on the same state.

Example:
  olist-etl run --data-dir ./data --connection "postgres://..."
  olist-etl run --batch-size 5000 --write-timeout 600`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 0,
		"master table rows written per batch")
	runCmd.Flags().IntVar(&runLoadTimeout, "load-timeout", 0,
		"CSV loading timeout in seconds")
	runCmd.Flags().IntVar(&runWriteTimeout, "write-timeout", 0,
		"per-table build timeout in seconds")
	runCmd.Flags().IntVar(&runRetries, "retries", 0,
		"attempts for retryable stages (extract, connect)")
	runCmd.Flags().IntVar(&runRetryDelay, "retry-delay", 0,
		"delay between retry attempts in seconds")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runBatchSize > 0 {
		cfg.Pipeline.BatchSize = runBatchSize
	}
	if runLoadTimeout > 0 {
		cfg.Pipeline.LoadTimeout = runLoadTimeout
	}
	if runWriteTimeout > 0 {
		cfg.Pipeline.WriteTimeout = runWriteTimeout
	}
	if runRetries > 0 {
		cfg.Pipeline.Retries = runRetries
	}
	if runRetryDelay > 0 {
		cfg.Pipeline.RetryDelay = runRetryDelay
	}

	// Validate configuration
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	}()

	start := time.Now()
	retry := pipeline.Retry{
		Attempts: cfg.Pipeline.Retries,
		Delay:    time.Duration(cfg.Pipeline.RetryDelay) * time.Second,
	}
	loadTimeout := time.Duration(cfg.Pipeline.LoadTimeout) * time.Second
	writeTimeout := time.Duration(cfg.Pipeline.WriteTimeout) * time.Second

	logging.Info().
		Str("data_dir", cfg.DataDir).
		Int("batch_size", cfg.Pipeline.BatchSize).
		Msg("Starting pipeline run")

	// Connect to the warehouse
	var pool *pgxpool.Pool
	err := retry.Do(ctx, "connect", func(ctx context.Context) error {
		var err error
		pool, err = db.Connect(ctx, cfg.Connection)
		return err
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	// Extract
	var src *pipeline.Sources
	err = retry.Do(ctx, "extract", func(ctx context.Context) error {
		loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
		defer cancel()
		var err error
		src, err = pipeline.Load(loadCtx, cfg.DataDir)
		return err
	})
	if err != nil {
		return reportRun(ctx, pool, start, nil, "extract", err)
	}

	// Transform
	merged := pipeline.Transform(src)
	logging.Info().
		Int("merged_rows", merged.Frame.Len()).
		Msg("Transform complete")

	counts := make(map[string]int64)

	// The master fact table builds first and alone; the summaries only touch
	// their own tables and run concurrently once it is in place.
	master, err := marts.Get("master")
	if err != nil {
		return err
	}
	if sized, ok := master.(interface{ SetBatchSize(int) }); ok {
		sized.SetBatchSize(cfg.Pipeline.BatchSize)
	}

	n, err := buildMart(ctx, pool, master, merged, writeTimeout)
	if err != nil {
		return reportRun(ctx, pool, start, counts, master.Name(), err)
	}
	counts[master.TableName()] = n

	if skipping, ok := master.(interface{ SkippedRows() int64 }); ok {
		if skipped := skipping.SkippedRows(); skipped > 0 {
			logging.Warn().
				Int64("skipped_rows", skipped).
				Msg("Rows without mandatory identifiers were skipped")
		}
	}

	// Build the summaries
	var (
		mu          sync.Mutex
		failedStage string
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range marts.All() {
		if m.Name() == master.Name() {
			continue
		}
		m := m
		g.Go(func() error {
			n, err := buildMart(gctx, pool, m, merged, writeTimeout)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if failedStage == "" {
					failedStage = m.Name()
				}
				return fmt.Errorf("building %s: %w", m.TableName(), err)
			}
			counts[m.TableName()] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reportRun(ctx, pool, start, counts, failedStage, err)
	}

	return reportRun(ctx, pool, start, counts, "", nil)
}

// buildMart rebuilds one output table under the per-table write timeout.
func buildMart(ctx context.Context, pool *pgxpool.Pool, m marts.Mart, merged *pipeline.Merged, timeout time.Duration) (int64, error) {
	buildCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return m.Build(buildCtx, pool, merged)
}

// reportRun logs the outcome, records it in the run metadata tables, and
// passes the pipeline error (if any) back to cobra.
func reportRun(ctx context.Context, pool *pgxpool.Pool, start time.Time, counts map[string]int64, failedStage string, runErr error) error {
	elapsed := time.Since(start)

	status := db.RunStatusSucceeded
	if runErr != nil {
		status = db.RunStatusFailed
	}

	// Recording is best effort; a metadata failure must not mask the
	// pipeline result.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := db.RecordRun(recordCtx, pool, db.RunRecord{
		Status:      status,
		FailedStage: failedStage,
		StartedAt:   start,
		FinishedAt:  time.Now(),
		Tables:      counts,
	}); err != nil {
		logging.Warn().Err(err).Msg("Failed to record run metadata")
	}

	if runErr != nil {
		logging.Error().
			Str("stage", failedStage).
			Dur("elapsed", elapsed).
			Err(runErr).
			Msg("Pipeline run failed")
		return fmt.Errorf("pipeline failed at stage %s: %w", failedStage, runErr)
	}

	event := logging.Info()
	for table, n := range counts {
		event = event.Int64(table, n)
	}
	event.Dur("elapsed", elapsed).Msg("Pipeline run complete")
	return nil
}
