package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// StoreActivity inserts one processed trade record. The source trade ID
// carries a unique constraint so a replayed record is a no-op instead of
// a duplicate row.
func (p *PostgresStorage) StoreActivity(ctx context.Context, rec *types.ActivityRecord) error {
	query := `
		INSERT INTO copy_trades (
			id, recorded_at, source_trade_id, market_id, question,
			side, source_size, source_price, outcome, reason,
			copied_size, copied_price, order_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (source_trade_id) DO NOTHING
	`

	_, err := p.db.ExecContext(ctx, query,
		rec.ID,
		rec.Time,
		rec.SourceID,
		rec.MarketID,
		rec.Question,
		string(rec.Side),
		rec.SourceSize,
		rec.SourcePrice,
		string(rec.Outcome),
		rec.Reason,
		rec.CopiedSize,
		rec.CopiedPrice,
		rec.OrderID,
	)

	if err != nil {
		return fmt.Errorf("insert copy trade: %w", err)
	}

	p.logger.Debug("activity-stored",
		zap.String("source-trade-id", rec.SourceID),
		zap.String("outcome", string(rec.Outcome)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
