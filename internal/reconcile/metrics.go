package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BalanceGauge tracks the current reconciled account balance in USDC.
	BalanceGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "copytrader_account_balance_usdc",
			Help: "Current reconciled account balance in USDC",
		},
	)

	// SessionVolumeGauge tracks filled notional accumulated this UTC day.
	SessionVolumeGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "copytrader_session_volume_usdc",
			Help: "Filled notional accumulated in the current UTC day",
		},
	)

	// OpenPositionsGauge tracks the number of markets with a net position.
	OpenPositionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "copytrader_open_positions",
			Help: "Number of markets with a nonzero copied position",
		},
	)

	// RealizedPnLGauge tracks cumulative realized P&L in USDC.
	RealizedPnLGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "copytrader_realized_pnl_usdc",
			Help: "Cumulative realized P&L from closed positions in USDC",
		},
	)

	// CopiedTradesTotal counts successfully copied trades.
	CopiedTradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copytrader_copied_trades_total",
			Help: "Total number of trades copied with a fill",
		},
	)
)
