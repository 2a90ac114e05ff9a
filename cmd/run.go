package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mselser95/polymarket-copytrader/internal/app"
	"github.com/mselser95/polymarket-copytrader/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the copy-trading engine",
	Long: `Starts the Polymarket copy-trading engine, which will:
1. Preseed the target wallet's recent history so old trades aren't copied
2. Stream the target's trades over WebSocket, with Data API poll backfill
3. Size, limit-check and submit a copy of each new trade
4. Reconcile balance, positions and session volume after every fill

Use --poll-only to disable the WebSocket stream for debugging.`,
	RunE: runEngine,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("poll-only", false, "Disable the WebSocket stream and rely on Data API polling")
}

func runEngine(cmd *cobra.Command, args []string) error {
	// Load .env if present
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	pollOnly, _ := cmd.Flags().GetBool("poll-only")

	// Create app with options
	opts := &app.Options{
		DisableStream: pollOnly,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
