package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olist-insights/olist-etl/internal/api"
	"github.com/olist-insights/olist-etl/internal/db"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the materialized tables over a read-only HTTP API",
	Long: `Start the HTTP query API over the tables a previous 'run' materialized.
The API is read-only; endpoints return 503 until the pipeline has run.

Example:
  olist-etl serve --listen :8080 --connection "postgres://..."`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"HTTP listen address (default :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if serveListen != "" {
		cfg.Serve.Listen = serveListen
	}

	// Validate configuration
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	pool, err := db.Connect(context.Background(), cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	server := api.NewServer(api.NewPGStore(pool))
	return server.Run(cfg.Serve.Listen)
}
