// Package safety enforces hard limits on copy orders before submission.
package safety

import (
	"fmt"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

// Denial reason codes, used as metric labels and activity log reasons.
const (
	DenyMaxTradeAmount      = "max_trade_amount"
	DenyInsufficientBalance = "insufficient_balance"
	DenyDailyVolumeCap      = "daily_volume_cap"
)

// Denial is a terminal rejection of a copy order. Denials never resize the
// order: the gate fails closed so the activity log reflects intent vs actual.
type Denial struct {
	Code   string
	Reason string
}

// Gate checks copy orders against configured hard limits.
type Gate struct {
	maxTradeAmount float64
	maxDailyVolume float64 // 0 disables the cap
	logger         *zap.Logger
}

// Config holds safety gate configuration.
type Config struct {
	MaxTradeAmount float64
	MaxDailyVolume float64
	Logger         *zap.Logger
}

// New creates a safety gate.
func New(cfg Config) *Gate {
	return &Gate{
		maxTradeAmount: cfg.MaxTradeAmount,
		maxDailyVolume: cfg.MaxDailyVolume,
		logger:         cfg.Logger,
	}
}

// Check returns nil if the order may proceed, or a Denial describing why
// not. Buy orders spend balance; sells only reduce a position, so balance
// and volume checks apply to buys.
func (g *Gate) Check(order *types.CopyOrder, snap types.AccountState) *Denial {
	if order.Notional > g.maxTradeAmount {
		return g.deny(order, DenyMaxTradeAmount,
			fmt.Sprintf("order notional %.2f exceeds max trade amount %.2f",
				order.Notional, g.maxTradeAmount))
	}

	if order.Side == types.SideBuy && snap.Balance < order.Notional {
		return g.deny(order, DenyInsufficientBalance,
			fmt.Sprintf("balance %.2f below order notional %.2f",
				snap.Balance, order.Notional))
	}

	if g.maxDailyVolume > 0 && snap.SessionVolume+order.Notional > g.maxDailyVolume {
		return g.deny(order, DenyDailyVolumeCap,
			fmt.Sprintf("daily volume %.2f + order %.2f exceeds cap %.2f",
				snap.SessionVolume, order.Notional, g.maxDailyVolume))
	}

	return nil
}

func (g *Gate) deny(order *types.CopyOrder, code, reason string) *Denial {
	DenialsTotal.WithLabelValues(code).Inc()

	g.logger.Info("safety-gate-denied-order",
		zap.String("source-trade-id", order.SourceTradeID),
		zap.String("code", code),
		zap.String("reason", reason))

	return &Denial{Code: code, Reason: reason}
}
