// Package cli implements the command-line interface for olist-etl.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/olist-insights/olist-etl/internal/config"
	"github.com/olist-insights/olist-etl/internal/logging"
	"github.com/olist-insights/olist-etl/internal/marts"
	"github.com/olist-insights/olist-etl/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	dataDir    string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "olist-etl",
		Short: "ETL pipeline and query API for the olist e-commerce datasets",
		Long: `olist-etl ingests the four olist CSV datasets (customers, orders,
order items, payments), merges them into a master fact table, materializes
per-customer, per-state, per-product and delivery summary tables in
PostgreSQL, and serves the results over a read-only HTTP API.

Every run rebuilds the output tables wholesale, so re-running the pipeline
over the same inputs is idempotent.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./olist-etl.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"directory holding the olist CSV datasets")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(martsCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var martsCmd = &cobra.Command{
	Use:   "marts",
	Short: "List the output tables the pipeline materializes",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Output tables:")
		cmd.Println()
		for _, m := range marts.All() {
			cmd.Printf("  %-10s %-18s %s\n", m.Name(), m.TableName(), m.Description())
		}
	},
}
