package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mselser95/polymarket-copytrader/internal/monitor"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"github.com/mselser95/polymarket-copytrader/pkg/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verifyTargetCmd = &cobra.Command{
	Use:   "verify-target [wallet]",
	Short: "Check a target wallet's recent activity before copying it",
	Long: `Fetches a wallet's recent trades and open positions from the Data API
so you can confirm the wallet is active and worth copying before
pointing the engine at it.

Defaults to TARGET_WALLET_ADDRESS from the environment; pass an address
argument to inspect a different wallet.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerifyTarget,
}

//nolint:gochecknoglobals // Cobra boilerplate
var verifyTradeLimit int

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(verifyTargetCmd)
	verifyTargetCmd.Flags().IntVarP(&verifyTradeLimit, "limit", "l", 20, "Number of recent trades to fetch")
}

func runVerifyTarget(cmd *cobra.Command, args []string) error {
	// Load .env if present
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	target := os.Getenv("TARGET_WALLET_ADDRESS")
	if len(args) > 0 {
		target = args[0]
	}
	if target == "" {
		return fmt.Errorf("no wallet given: pass an address or set TARGET_WALLET_ADDRESS")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	dataURL := "https://data-api.polymarket.com"
	if v := os.Getenv("POLYMARKET_DATA_API_URL"); v != "" {
		dataURL = v
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dataClient := monitor.NewDataAPIClient(dataURL, logger)
	trades, err := dataClient.RecentTrades(ctx, target, verifyTradeLimit)
	if err != nil {
		return fmt.Errorf("fetch recent trades: %w", err)
	}

	fmt.Printf("=== Target Wallet Activity ===\n\n")
	fmt.Printf("Wallet: %s\n\n", target)

	if len(trades) == 0 {
		fmt.Printf("No recent trades found. This wallet may be inactive.\n")
	} else {
		fmt.Printf("RECENT TRADES (%d)\n", len(trades))
		fmt.Println("--------------------------------------------------------------------------------")
		buys, sells := summarizeTrades(trades)
		for _, tr := range trades {
			ts := time.Unix(tr.Timestamp, 0).UTC().Format("2006-01-02 15:04:05")
			title := tr.Title
			if title == "" {
				title = tr.ConditionID
			}
			fmt.Printf("%s  %-4s %8.2f @ %.4f  %s\n", ts, tr.Side, tr.Size, tr.Price, title)
		}
		fmt.Println()
		fmt.Printf("Buys: %d | Sells: %d | Total notional: $%.2f\n", buys, sells, totalNotional(trades))

		last := time.Unix(trades[0].Timestamp, 0).UTC()
		fmt.Printf("Last trade: %s (%s ago)\n", last.Format(time.RFC3339), time.Since(last).Round(time.Minute))
	}

	walletClient, err := wallet.NewClient("https://polygon-rpc.com", dataURL, logger)
	if err != nil {
		return fmt.Errorf("create wallet client: %w", err)
	}

	positions, err := walletClient.GetPositions(ctx, target)
	if err != nil {
		fmt.Printf("\nError fetching positions: %v\n", err)
		return nil
	}

	fmt.Printf("\nOPEN POSITIONS (%d)\n", len(positions))
	fmt.Println("--------------------------------------------------------------------------------")
	totalValue := 0.0
	for _, pos := range positions {
		fmt.Printf("%-50s %-10s %8.2f tokens  $%.2f\n", pos.MarketSlug, pos.Outcome, pos.Size, pos.Value)
		totalValue += pos.Value
	}
	if len(positions) > 0 {
		fmt.Printf("\nTotal position value: $%.2f\n", totalValue)
	}

	return nil
}

func summarizeTrades(trades []types.DataAPITrade) (buys, sells int) {
	for _, tr := range trades {
		switch tr.Side {
		case "BUY", "buy":
			buys++
		case "SELL", "sell":
			sells++
		}
	}
	return buys, sells
}

func totalNotional(trades []types.DataAPITrade) float64 {
	total := 0.0
	for _, tr := range trades {
		total += tr.Size * tr.Price
	}
	return total
}
