// Package main is the entry point for olist-etl.
package main

import (
	"fmt"
	"os"

	"github.com/olist-insights/olist-etl/internal/cli"

	// Register output tables
	_ "github.com/olist-insights/olist-etl/internal/marts/delivery"
	_ "github.com/olist-insights/olist-etl/internal/marts/master"
	_ "github.com/olist-insights/olist-etl/internal/marts/product"
	_ "github.com/olist-insights/olist-etl/internal/marts/sales"
	_ "github.com/olist-insights/olist-etl/internal/marts/state"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
