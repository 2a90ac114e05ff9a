package storage

import (
	"context"
	"fmt"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreActivity pretty-prints a processed trade record to console.
func (c *ConsoleStorage) StoreActivity(ctx context.Context, rec *types.ActivityRecord) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("TRADE %s\n", rec.Outcome)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Source:   %s\n", rec.SourceID)
	fmt.Printf("Market:   %s\n", rec.MarketID)
	if rec.Question != "" {
		fmt.Printf("Question: %s\n", rec.Question)
	}
	fmt.Printf("Time:     %s\n", rec.Time.Format("2006-01-02 15:04:05"))
	fmt.Printf("Target:   %s %.2f @ %.4f\n", rec.Side, rec.SourceSize, rec.SourcePrice)

	switch rec.Outcome {
	case types.OutcomeCopied:
		fmt.Printf("Copied:   %s %.2f @ %.4f (order %s)\n", rec.Side, rec.CopiedSize, rec.CopiedPrice, rec.OrderID)
	default:
		fmt.Printf("Reason:   %s\n", rec.Reason)
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
