package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polymarket-copytrader",
	Short: "Polymarket copy-trading engine",
	Long: `Polymarket copy-trading engine that watches a target wallet's trades
and replicates scaled copies into your own account.

The engine receives trades over the live-data WebSocket, backfills gaps
from the Data API poll, deduplicates across both origins, sizes each copy
per the configured mode, enforces safety limits, and submits orders in
paper or live mode.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
