package cmd

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/mselser95/polymarket-copytrader/pkg/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check your wallet balances and positions",
	Long: `Display your current holdings including:
- MATIC balance (for gas)
- USDC balance (for trading)
- USDC allowance (approved to CTF Exchange)
- Active positions (outcome tokens you hold)`,
	RunE: runBalance,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	showPositions bool
	balanceRPC    string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().BoolVarP(&showPositions, "positions", "p", true, "Show active positions")
	balanceCmd.Flags().StringVarP(&balanceRPC, "rpc", "r", "https://polygon-rpc.com", "Polygon RPC endpoint")
}

func runBalance(cmd *cobra.Command, args []string) error {
	// Load .env
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	privateKeyHex := os.Getenv("POLYMARKET_PRIVATE_KEY")
	if privateKeyHex == "" {
		return fmt.Errorf("POLYMARKET_PRIVATE_KEY not set in .env")
	}

	// Parse private key
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}

	// Derive address
	publicKey := privateKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("error casting public key to ECDSA")
	}
	address := crypto.PubkeyToAddress(*publicKeyECDSA)

	// The copying account is the proxy wallet when one is configured.
	displayAddress := address.Hex()
	if proxy := os.Getenv("PROXY_ADDRESS"); proxy != "" {
		displayAddress = proxy
	}

	fmt.Printf("=== Wallet Balance Sheet ===\n\n")
	fmt.Printf("Address: %s\n\n", displayAddress)

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

	walletClient, err := wallet.NewClient(balanceRPC, dataURL, logger)
	if err != nil {
		return fmt.Errorf("create wallet client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	balances, err := walletClient.GetBalances(ctx, common.HexToAddress(displayAddress))
	if err != nil {
		return fmt.Errorf("get balances: %w", err)
	}

	maticFloat := new(big.Float).Quo(new(big.Float).SetInt(balances.MATIC), big.NewFloat(1e18))
	fmt.Printf("MATIC Balance: %s MATIC\n", maticFloat.Text('f', 6))
	fmt.Printf("USDC Balance: %.2f USDC\n", balances.USDCFloat())

	allowanceFloat := new(big.Float).Quo(new(big.Float).SetInt(balances.USDCAllowance), big.NewFloat(1e6))
	if balances.USDCAllowance.Cmp(new(big.Int).SetUint64(1e18)) > 0 {
		fmt.Printf("USDC Allowance: Unlimited\n")
	} else {
		fmt.Printf("USDC Allowance: %s USDC\n", allowanceFloat.Text('f', 2))
	}

	// Show positions if requested
	if showPositions {
		fmt.Printf("\n=== Active Positions ===\n\n")
		positions, err := walletClient.GetPositions(ctx, displayAddress)
		if err != nil {
			fmt.Printf("Error fetching positions: %v\n", err)
		} else if len(positions) == 0 {
			fmt.Printf("No active positions\n")
		} else {
			totalValue := 0.0
			for _, pos := range positions {
				fmt.Printf("Market: %s\n", pos.MarketSlug)
				fmt.Printf("  Outcome: %s\n", pos.Outcome)
				fmt.Printf("  Size: %.2f tokens\n", pos.Size)
				fmt.Printf("  Value: $%.2f\n\n", pos.Value)
				totalValue += pos.Value
			}
			fmt.Printf("Total Position Value: $%.2f\n", totalValue)
		}
	}

	fmt.Printf("\n=== Summary ===\n")
	fmt.Printf("Ready to copy-trade: ")
	if balances.USDC.Cmp(big.NewInt(1000000)) >= 0 && balances.USDCAllowance.Sign() > 0 {
		fmt.Printf("YES\n")
		fmt.Printf("\nStart the engine:\n")
		fmt.Printf("  go run . run\n")
	} else {
		fmt.Printf("NO\n")
		if balances.USDC.Cmp(big.NewInt(1000000)) < 0 {
			fmt.Printf("  - Need more USDC (minimum $1.00)\n")
		}
		if balances.USDCAllowance.Sign() == 0 {
			fmt.Printf("  - Need to approve USDC spending to the CTF Exchange\n")
		}
	}

	return nil
}
