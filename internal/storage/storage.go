package storage

import (
	"context"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
)

// Storage is the interface for persisting copy-trade activity.
type Storage interface {
	// StoreActivity stores one processed trade record.
	StoreActivity(ctx context.Context, rec *types.ActivityRecord) error

	// Close closes the storage connection.
	Close() error
}
