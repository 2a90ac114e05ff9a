// Package engine orchestrates the copy-trading pipeline: observed target
// trades flow through dedup, sizing, safety and execution into the
// reconciled account state, one event at a time. Sequential processing is
// what makes the snapshot handed to sizing and safety consistent.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mselser95/polymarket-copytrader/internal/dedup"
	"github.com/mselser95/polymarket-copytrader/internal/monitor"
	"github.com/mselser95/polymarket-copytrader/internal/reconcile"
	"github.com/mselser95/polymarket-copytrader/internal/safety"
	"github.com/mselser95/polymarket-copytrader/internal/sizing"
	"github.com/mselser95/polymarket-copytrader/internal/storage"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

// ErrConnectionLost is returned by Run when the stream could not be
// re-established within the reconnect budget.
var ErrConnectionLost = errors.New("trade stream connection lost")

// EventSource is the monitor surface the engine consumes.
type EventSource interface {
	Start() error
	Events() <-chan *types.TradeEvent
	StatusChan() <-chan monitor.Status
	RecentHistory(ctx context.Context, limit int) ([]string, error)
	Close() error
}

// Submitter executes copy orders.
type Submitter interface {
	Submit(ctx context.Context, order *types.CopyOrder) (*types.ExecutionResult, error)
}

// MarketResolver resolves condition IDs to market metadata.
type MarketResolver interface {
	Resolve(ctx context.Context, conditionID string) (*types.Market, error)
}

// BalanceFunc reads the externally observed account balance.
type BalanceFunc func(ctx context.Context) (float64, error)

// Engine runs the copy-trading session.
type Engine struct {
	source   EventSource
	ledger   *dedup.Ledger
	policy   *sizing.Policy
	gate     *safety.Gate
	executor Submitter
	tracker  *reconcile.Tracker
	resolver MarketResolver
	store    storage.Storage
	logger   *zap.Logger

	targetWallet    string
	historyLookback int
	submitTimeout   time.Duration
	balanceFunc     BalanceFunc
	syncInterval    time.Duration

	phase phaseTracker
}

// Config holds engine configuration.
type Config struct {
	Source   EventSource
	Ledger   *dedup.Ledger
	Policy   *sizing.Policy
	Gate     *safety.Gate
	Executor Submitter
	Tracker  *reconcile.Tracker
	Resolver MarketResolver
	Store    storage.Storage // optional
	Logger   *zap.Logger

	TargetWallet    string
	HistoryLookback int
	SubmitTimeout   time.Duration
	BalanceFunc     BalanceFunc // optional periodic balance sync
	SyncInterval    time.Duration
}

// New creates an engine.
func New(cfg Config) *Engine {
	e := &Engine{
		source:          cfg.Source,
		ledger:          cfg.Ledger,
		policy:          cfg.Policy,
		gate:            cfg.Gate,
		executor:        cfg.Executor,
		tracker:         cfg.Tracker,
		resolver:        cfg.Resolver,
		store:           cfg.Store,
		logger:          cfg.Logger,
		targetWallet:    cfg.TargetWallet,
		historyLookback: cfg.HistoryLookback,
		submitTimeout:   cfg.SubmitTimeout,
		balanceFunc:     cfg.BalanceFunc,
		syncInterval:    cfg.SyncInterval,
	}
	e.phase.set(PhaseIdle)
	return e
}

// Phase returns the current lifecycle phase name.
func (e *Engine) Phase() string {
	return e.phase.get().String()
}

// Snapshot exposes the reconciled account state.
func (e *Engine) Snapshot() types.AccountState {
	return e.tracker.Snapshot()
}

// Activity exposes the recent activity log, newest first.
func (e *Engine) Activity(limit int) []types.ActivityRecord {
	return e.tracker.Activity(limit)
}

// Run drives the session until the context is cancelled or a fatal error
// occurs. Trades made by the target before startup are preseeded into the
// ledger and never copied.
func (e *Engine) Run(ctx context.Context) error {
	e.phase.set(PhaseConnecting)
	e.logger.Info("engine-connecting", zap.String("target-wallet", e.targetWallet))

	if e.historyLookback > 0 {
		ids, err := e.source.RecentHistory(ctx, e.historyLookback)
		if err != nil {
			e.phase.set(PhaseIdle)
			return fmt.Errorf("preseed history: %w", err)
		}

		e.ledger.Preseed(ids)
		e.logger.Info("preseeded-trade-history", zap.Int("count", len(ids)))
	}

	if err := e.source.Start(); err != nil {
		e.phase.set(PhaseIdle)
		return fmt.Errorf("start event source: %w", err)
	}

	go e.ledger.Run(ctx)

	// Seed the balance before processing anything; waiting for the first
	// sync tick would deny every early buy against a zero balance.
	if e.balanceFunc != nil {
		e.syncBalance(ctx)
	}

	e.phase.set(PhaseRunning)
	e.logger.Info("engine-running")

	err := e.loop(ctx)

	e.phase.set(PhaseStopping)
	e.logger.Info("engine-stopping")

	if closeErr := e.source.Close(); closeErr != nil {
		e.logger.Warn("error-closing-event-source", zap.Error(closeErr))
	}

	e.logSummary()
	e.phase.set(PhaseIdle)

	return err
}

// loop is the sequential event pump. One event is fully processed before
// the next is read, so every snapshot the pipeline sees reflects all prior
// fills.
func (e *Engine) loop(ctx context.Context) error {
	var syncC <-chan time.Time
	if e.balanceFunc != nil && e.syncInterval > 0 {
		ticker := time.NewTicker(e.syncInterval)
		defer ticker.Stop()
		syncC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-e.source.Events():
			if !ok {
				return nil
			}
			if err := e.process(ctx, event); err != nil {
				return err
			}

		case status, ok := <-e.source.StatusChan():
			if !ok {
				continue
			}
			switch status {
			case monitor.StatusDisconnected:
				e.phase.set(PhaseReconnecting)
				e.logger.Warn("stream-disconnected")
			case monitor.StatusConnected:
				e.phase.set(PhaseRunning)
				e.logger.Info("stream-reconnected")
			case monitor.StatusLost:
				return ErrConnectionLost
			}

		case <-syncC:
			e.syncBalance(ctx)
		}
	}
}

// process runs one event through the pipeline. Only fatal errors are
// returned; everything else ends in an activity record.
func (e *Engine) process(ctx context.Context, event *types.TradeEvent) error {
	if e.ledger.Observe(event.SourceTradeID) == dedup.AlreadySeen {
		return nil
	}

	EventsProcessedTotal.WithLabelValues(string(event.Origin)).Inc()

	e.logger.Info("target-trade-observed",
		zap.String("source-trade-id", event.SourceTradeID),
		zap.String("market", event.MarketID),
		zap.String("side", string(event.Side)),
		zap.Float64("size", event.Size),
		zap.Float64("price", event.Price),
		zap.String("origin", string(event.Origin)))

	market := e.resolveMarket(ctx, event.MarketID)

	snap := e.tracker.Snapshot()

	order, skip := e.policy.Size(event, market, snap)
	if skip != nil {
		e.finishSkipped(ctx, event, market, types.OutcomeSkipped, skip.Reason)
		return nil
	}

	if denial := e.gate.Check(order, snap); denial != nil {
		e.finishSkipped(ctx, event, market, types.OutcomeDenied, denial.Reason)
		return nil
	}

	// The submit context is detached from the run context: a stop request
	// must not abandon an order that may already be at the exchange.
	submitCtx, cancel := context.WithTimeout(context.Background(), e.submitTimeout)
	defer cancel()

	result, err := e.executor.Submit(submitCtx, order)
	if err != nil {
		// Fatal auth error: the entry stays PENDING and the session halts.
		return fmt.Errorf("submit order for %s: %w", event.SourceTradeID, err)
	}

	outcome := types.OutcomeCopied
	reason := ""
	if !result.Succeeded() {
		outcome = types.OutcomeFailed
		if result.Err != nil {
			reason = result.Err.Error()
		}
	}

	rec := e.tracker.Apply(event, market, order, result, outcome, reason)
	if outcome == types.OutcomeCopied {
		e.ledger.MarkDone(event.SourceTradeID)
	} else {
		e.ledger.MarkSkipped(event.SourceTradeID)
	}
	e.persist(ctx, &rec)

	return nil
}

// resolveMarket looks up market metadata; resolution failure is treated as
// an unsupported market rather than an engine fault.
func (e *Engine) resolveMarket(ctx context.Context, conditionID string) *types.Market {
	resolveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	market, err := e.resolver.Resolve(resolveCtx, conditionID)
	if err != nil {
		e.logger.Warn("market-resolution-failed",
			zap.String("condition-id", conditionID),
			zap.Error(err))
		return nil
	}

	return market
}

func (e *Engine) finishSkipped(ctx context.Context, event *types.TradeEvent, market *types.Market, outcome types.Outcome, reason string) {
	rec := e.tracker.Apply(event, market, nil, nil, outcome, reason)
	e.ledger.MarkSkipped(event.SourceTradeID)
	e.persist(ctx, &rec)
}

// persist stores the record best-effort; storage failure never blocks the
// pipeline.
func (e *Engine) persist(ctx context.Context, rec *types.ActivityRecord) {
	if e.store == nil {
		return
	}

	storeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.store.StoreActivity(storeCtx, rec); err != nil {
		e.logger.Warn("store-activity-failed",
			zap.String("source-trade-id", rec.SourceID),
			zap.Error(err))
	}
}

func (e *Engine) syncBalance(ctx context.Context) {
	syncCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	balance, err := e.balanceFunc(syncCtx)
	if err != nil {
		e.logger.Warn("balance-sync-failed", zap.Error(err))
		return
	}

	e.tracker.SyncBalance(balance)
}

func (e *Engine) logSummary() {
	s := e.tracker.Summarize()
	e.logger.Info("session-summary",
		zap.Int("copied", s.CopiedTrades),
		zap.Int("skipped", s.SkippedTrades),
		zap.Int("denied", s.DeniedTrades),
		zap.Int("failed", s.FailedTrades),
		zap.Float64("session-volume", s.SessionVolume),
		zap.Float64("final-balance", s.FinalBalance),
		zap.Float64("realized-pnl", s.RealizedPnL),
		zap.Int("open-positions", s.OpenPositions))
}
