// Package reconcile maintains the engine's view of the copying account.
// The tracker is the only writer of account state; all other components
// read immutable snapshots.
package reconcile

import (
	"strconv"
	"sync"
	"time"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

const defaultActivityCap = 1000

// Tracker applies execution results to account state, keeps the ordered
// activity log and rolls session volume over at UTC midnight.
type Tracker struct {
	logger *zap.Logger

	mu          sync.RWMutex
	state       types.AccountState
	costBasis   map[string]float64 // market ID -> average entry price
	activity    []types.ActivityRecord
	activityCap int
	sessionDay  time.Time // UTC midnight of the current session day
	seq         int

	now func() time.Time
}

// Config holds tracker configuration.
type Config struct {
	InitialBalance float64
	ActivityCap    int
	Logger         *zap.Logger
}

// New creates a tracker with the given starting balance.
func New(cfg Config) *Tracker {
	capacity := cfg.ActivityCap
	if capacity <= 0 {
		capacity = defaultActivityCap
	}

	now := time.Now().UTC()

	return &Tracker{
		logger: cfg.Logger,
		state: types.AccountState{
			Balance:   cfg.InitialBalance,
			Positions: make(map[string]float64),
			UpdatedAt: now,
		},
		costBasis:   make(map[string]float64),
		activityCap: capacity,
		sessionDay:  now.Truncate(24 * time.Hour),
		now:         time.Now,
	}
}

// Snapshot returns a deep copy of the current account state.
func (t *Tracker) Snapshot() types.AccountState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Clone()
}

// Apply records the outcome of one processed event and, for fills, updates
// balance, positions and session volume. It returns the activity record it
// appended. The market is optional and only annotates the record.
func (t *Tracker) Apply(event *types.TradeEvent, market *types.Market, order *types.CopyOrder, result *types.ExecutionResult, outcome types.Outcome, reason string) types.ActivityRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().UTC()
	t.rollSessionLocked(now)

	rec := types.ActivityRecord{
		Time:        now,
		SourceID:    event.SourceTradeID,
		MarketID:    event.MarketID,
		Side:        event.Side,
		SourceSize:  event.Size,
		SourcePrice: event.Price,
		Outcome:     outcome,
		Reason:      reason,
	}

	if market != nil {
		rec.Question = market.Question
	}

	if result != nil {
		rec.OrderID = result.OrderID
		rec.CopiedSize = result.FilledSize
		rec.CopiedPrice = result.FilledPrice
	}

	if outcome == types.OutcomeCopied && result != nil && result.FilledSize > 0 {
		t.applyFillLocked(order, result, now)
	}

	t.seq++
	rec.ID = recordID(t.seq, now)
	t.appendActivityLocked(rec)

	t.logger.Debug("activity-recorded",
		zap.String("source-trade-id", rec.SourceID),
		zap.String("outcome", string(rec.Outcome)),
		zap.String("reason", rec.Reason))

	return rec
}

// applyFillLocked moves balance, position and realized P&L for an executed
// fill. Notional uses the actual filled size and price, not the requested
// ones, so a partial fill only debits what was spent. Buys fold into a
// weighted-average entry price per market; sells realize the spread between
// fill price and that average.
func (t *Tracker) applyFillLocked(order *types.CopyOrder, result *types.ExecutionResult, now time.Time) {
	notional := result.FilledSize * result.FilledPrice

	if order.Side == types.SideBuy {
		t.state.Balance -= notional
		held := t.state.Positions[order.MarketID]
		newHeld := held + result.FilledSize
		t.costBasis[order.MarketID] = (held*t.costBasis[order.MarketID] + notional) / newHeld
		t.state.Positions[order.MarketID] = newHeld
	} else {
		t.state.Balance += notional
		t.state.CumulativePnL += (result.FilledPrice - t.costBasis[order.MarketID]) * result.FilledSize
		held := t.state.Positions[order.MarketID]
		remaining := held - result.FilledSize
		if remaining <= 0 {
			delete(t.state.Positions, order.MarketID)
			delete(t.costBasis, order.MarketID)
		} else {
			t.state.Positions[order.MarketID] = remaining
		}
	}

	t.state.CopiedTradeCount++
	t.state.SessionVolume += notional
	t.state.UpdatedAt = now

	BalanceGauge.Set(t.state.Balance)
	SessionVolumeGauge.Set(t.state.SessionVolume)
	OpenPositionsGauge.Set(float64(len(t.state.Positions)))
	RealizedPnLGauge.Set(t.state.CumulativePnL)
	CopiedTradesTotal.Inc()
}

// SyncBalance replaces the tracked balance with an externally observed one
// (e.g. on-chain USDC balance). Positions and counters are untouched.
func (t *Tracker) SyncBalance(balance float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.state.Balance
	t.state.Balance = balance
	t.state.UpdatedAt = t.now().UTC()
	BalanceGauge.Set(balance)

	if prev != balance {
		t.logger.Info("balance-synced",
			zap.Float64("previous", prev),
			zap.Float64("current", balance))
	}
}

// Activity returns the most recent records, newest first, up to limit
// (0 means all retained records).
func (t *Tracker) Activity(limit int) []types.ActivityRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := len(t.activity)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]types.ActivityRecord, n)
	for i := 0; i < n; i++ {
		out[i] = t.activity[len(t.activity)-1-i]
	}
	return out
}

// Summary aggregates the session for the shutdown report.
type Summary struct {
	CopiedTrades  int
	SkippedTrades int
	DeniedTrades  int
	FailedTrades  int
	SessionVolume float64
	FinalBalance  float64
	RealizedPnL   float64
	OpenPositions int
}

// Summarize tallies the retained activity log into a session summary.
func (t *Tracker) Summarize() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Summary{
		SessionVolume: t.state.SessionVolume,
		FinalBalance:  t.state.Balance,
		RealizedPnL:   t.state.CumulativePnL,
		OpenPositions: len(t.state.Positions),
	}

	for _, rec := range t.activity {
		switch rec.Outcome {
		case types.OutcomeCopied:
			s.CopiedTrades++
		case types.OutcomeSkipped:
			s.SkippedTrades++
		case types.OutcomeDenied:
			s.DeniedTrades++
		case types.OutcomeFailed:
			s.FailedTrades++
		}
	}

	return s
}

// rollSessionLocked resets session volume when the UTC day changes.
func (t *Tracker) rollSessionLocked(now time.Time) {
	day := now.Truncate(24 * time.Hour)
	if day.After(t.sessionDay) {
		t.logger.Info("session-volume-rolled-over",
			zap.Float64("previous-volume", t.state.SessionVolume),
			zap.Time("new-day", day))
		t.state.SessionVolume = 0
		t.sessionDay = day
		SessionVolumeGauge.Set(0)
	}
}

func (t *Tracker) appendActivityLocked(rec types.ActivityRecord) {
	t.activity = append(t.activity, rec)
	if len(t.activity) > t.activityCap {
		t.activity = t.activity[len(t.activity)-t.activityCap:]
	}
}

func recordID(seq int, now time.Time) string {
	return now.Format("20060102T150405") + "-" + strconv.Itoa(seq)
}
