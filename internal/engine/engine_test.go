package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mselser95/polymarket-copytrader/internal/dedup"
	"github.com/mselser95/polymarket-copytrader/internal/monitor"
	"github.com/mselser95/polymarket-copytrader/internal/reconcile"
	"github.com/mselser95/polymarket-copytrader/internal/safety"
	"github.com/mselser95/polymarket-copytrader/internal/sizing"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

type fakeSource struct {
	events  chan *types.TradeEvent
	status  chan monitor.Status
	history []string
}

func newFakeSource(history ...string) *fakeSource {
	return &fakeSource{
		events:  make(chan *types.TradeEvent, 16),
		status:  make(chan monitor.Status, 4),
		history: history,
	}
}

func (f *fakeSource) Start() error                      { return nil }
func (f *fakeSource) Events() <-chan *types.TradeEvent  { return f.events }
func (f *fakeSource) StatusChan() <-chan monitor.Status { return f.status }
func (f *fakeSource) Close() error                      { return nil }

func (f *fakeSource) RecentHistory(ctx context.Context, limit int) ([]string, error) {
	return f.history, nil
}

type fakeSubmitter struct {
	mu     sync.Mutex
	calls  []*types.CopyOrder
	result *types.ExecutionResult
	err    error
}

func (f *fakeSubmitter) Submit(ctx context.Context, order *types.CopyOrder) (*types.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, order)

	if f.err != nil {
		return nil, f.err
	}

	if f.result != nil {
		r := *f.result
		r.SourceTradeID = order.SourceTradeID
		return &r, nil
	}

	return &types.ExecutionResult{
		SourceTradeID: order.SourceTradeID,
		OrderID:       "o1",
		Status:        types.ExecFilled,
		FilledSize:    order.Size,
		FilledPrice:   order.PriceLimit,
		Attempts:      1,
	}, nil
}

func (f *fakeSubmitter) submitted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeResolver struct {
	market *types.Market
}

func (f *fakeResolver) Resolve(ctx context.Context, conditionID string) (*types.Market, error) {
	return f.market, nil
}

func tradableMarket() *types.Market {
	return &types.Market{
		ConditionID: "cond-1",
		Question:    "Will it happen?",
		Active:      true,
		Closed:      false,
	}
}

func testEvent(id string) *types.TradeEvent {
	return &types.TradeEvent{
		SourceTradeID: id,
		Wallet:        "0xtarget",
		MarketID:      "cond-1",
		TokenID:       "tok-1",
		Side:          types.SideBuy,
		Size:          100,
		Price:         0.5,
		Timestamp:     time.Now(),
		Origin:        types.OriginStream,
	}
}

type engineHarness struct {
	engine    *Engine
	source    *fakeSource
	submitter *fakeSubmitter
	tracker   *reconcile.Tracker
	ledger    *dedup.Ledger
}

func newHarness(t *testing.T, balance float64, history ...string) *engineHarness {
	t.Helper()

	source := newFakeSource(history...)
	submitter := &fakeSubmitter{}
	tracker := reconcile.New(reconcile.Config{InitialBalance: balance, Logger: zap.NewNop()})
	ledger := dedup.New(dedup.Config{
		Retention:     time.Hour,
		SweepInterval: time.Minute,
		Logger:        zap.NewNop(),
	})

	eng := New(Config{
		Source:   source,
		Ledger:   ledger,
		Policy:   sizing.New(sizing.Config{Mode: sizing.ModeFixed, FixedAmount: 10}),
		Gate:     safety.New(safety.Config{MaxTradeAmount: 100, Logger: zap.NewNop()}),
		Executor: submitter,
		Tracker:  tracker,
		Resolver: &fakeResolver{market: tradableMarket()},
		Logger:   zap.NewNop(),

		TargetWallet:    "0xtarget",
		HistoryLookback: len(history),
		SubmitTimeout:   time.Second,
	})

	return &engineHarness{
		engine:    eng,
		source:    source,
		submitter: submitter,
		tracker:   tracker,
		ledger:    ledger,
	}
}

func runEngine(t *testing.T, h *engineHarness) (cancel func(), done chan error) {
	t.Helper()

	ctx, stop := context.WithCancel(context.Background())
	done = make(chan error, 1)
	go func() { done <- h.engine.Run(ctx) }()

	return stop, done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestEngine_CopiesObservedTrade(t *testing.T) {
	h := newHarness(t, 500)
	cancel, done := runEngine(t, h)
	defer func() { cancel(); <-done }()

	h.source.events <- testEvent("0xaaa")

	waitFor(t, func() bool { return h.submitter.submitted() == 1 })

	waitFor(t, func() bool { return h.tracker.Snapshot().CopiedTradeCount == 1 })

	snap := h.tracker.Snapshot()
	if snap.Balance != 490 {
		t.Errorf("expected balance 490 after $10 fixed buy, got %f", snap.Balance)
	}

	order := h.submitter.calls[0]
	if order.Notional != 10 {
		t.Errorf("expected fixed $10 notional, got %f", order.Notional)
	}
}

func TestEngine_ExactlyOnceAcrossOrigins(t *testing.T) {
	h := newHarness(t, 500)
	cancel, done := runEngine(t, h)
	defer func() { cancel(); <-done }()

	streamCopy := testEvent("0xdup")
	pollCopy := testEvent("0xdup")
	pollCopy.Origin = types.OriginPoll

	h.source.events <- streamCopy
	h.source.events <- pollCopy
	h.source.events <- testEvent("0xother")

	waitFor(t, func() bool { return h.submitter.submitted() == 2 })

	// Give the duplicate a chance to sneak through, then confirm it didn't.
	time.Sleep(50 * time.Millisecond)
	if got := h.submitter.submitted(); got != 2 {
		t.Errorf("expected 2 submissions for 2 distinct trades, got %d", got)
	}
}

func TestEngine_PreseededHistoryNeverCopied(t *testing.T) {
	h := newHarness(t, 500, "0xhistoric")
	cancel, done := runEngine(t, h)
	defer func() { cancel(); <-done }()

	h.source.events <- testEvent("0xhistoric")
	h.source.events <- testEvent("0xfresh")

	waitFor(t, func() bool { return h.submitter.submitted() == 1 })

	if h.submitter.calls[0].SourceTradeID != "0xfresh" {
		t.Errorf("expected only the fresh trade submitted, got %s", h.submitter.calls[0].SourceTradeID)
	}
}

func TestEngine_DeniedTradeNotSubmitted(t *testing.T) {
	h := newHarness(t, 500)
	// Fixed $10 sizing, but the gate allows at most $5 per trade.
	h.engine.gate = safety.New(safety.Config{MaxTradeAmount: 5, Logger: zap.NewNop()})

	cancel, done := runEngine(t, h)
	defer func() { cancel(); <-done }()

	h.source.events <- testEvent("0xbig")

	waitFor(t, func() bool {
		records := h.tracker.Activity(0)
		return len(records) == 1 && records[0].Outcome == types.OutcomeDenied
	})

	if h.submitter.submitted() != 0 {
		t.Error("denied trade must not reach the executor")
	}

	if h.tracker.Snapshot().Balance != 500 {
		t.Errorf("denied trade must not move balance, got %f", h.tracker.Snapshot().Balance)
	}
}

func TestEngine_UntradableMarketSkipped(t *testing.T) {
	h := newHarness(t, 500)
	closed := tradableMarket()
	closed.Closed = true
	h.engine.resolver = &fakeResolver{market: closed}

	cancel, done := runEngine(t, h)
	defer func() { cancel(); <-done }()

	h.source.events <- testEvent("0xclosed")

	waitFor(t, func() bool {
		records := h.tracker.Activity(0)
		return len(records) == 1 && records[0].Outcome == types.OutcomeSkipped
	})

	if h.submitter.submitted() != 0 {
		t.Error("skipped trade must not reach the executor")
	}
}

func TestEngine_FatalAuthHaltsSession(t *testing.T) {
	h := newHarness(t, 500)
	h.submitter.err = &types.FatalAuthError{StatusCode: 401, Message: "revoked"}

	_, done := runEngine(t, h)

	h.source.events <- testEvent("0xfatal")

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected fatal auth error from Run")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not halt on fatal auth error")
	}

	if h.engine.Phase() != "IDLE" {
		t.Errorf("expected IDLE after halt, got %s", h.engine.Phase())
	}
}

func TestEngine_ConnectionLostHaltsSession(t *testing.T) {
	h := newHarness(t, 500)
	_, done := runEngine(t, h)

	h.source.status <- monitor.StatusLost

	select {
	case err := <-done:
		if err != ErrConnectionLost {
			t.Fatalf("expected ErrConnectionLost, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not halt on lost connection")
	}
}

func TestEngine_PhaseTransitions(t *testing.T) {
	h := newHarness(t, 500)

	if h.engine.Phase() != "IDLE" {
		t.Errorf("expected IDLE before start, got %s", h.engine.Phase())
	}

	cancel, done := runEngine(t, h)

	waitFor(t, func() bool { return h.engine.Phase() == "RUNNING" })

	h.source.status <- monitor.StatusDisconnected
	waitFor(t, func() bool { return h.engine.Phase() == "RECONNECTING" })

	h.source.status <- monitor.StatusConnected
	waitFor(t, func() bool { return h.engine.Phase() == "RUNNING" })

	cancel()
	<-done

	if h.engine.Phase() != "IDLE" {
		t.Errorf("expected IDLE after stop, got %s", h.engine.Phase())
	}
}

func TestEngine_FailedExecutionRecordedWithoutStateChange(t *testing.T) {
	h := newHarness(t, 500)
	h.submitter.result = &types.ExecutionResult{
		OrderID:  "",
		Status:   types.ExecFailed,
		Attempts: 3,
	}

	cancel, done := runEngine(t, h)
	defer func() { cancel(); <-done }()

	h.source.events <- testEvent("0xfail")

	waitFor(t, func() bool {
		records := h.tracker.Activity(0)
		return len(records) == 1 && records[0].Outcome == types.OutcomeFailed
	})

	if h.tracker.Snapshot().Balance != 500 {
		t.Errorf("failed execution must not move balance, got %f", h.tracker.Snapshot().Balance)
	}

	// Terminal failure is terminal: the entry moves to SKIPPED (no copy was
	// produced) and the same trade must not be retried.
	if status, ok := h.ledger.Status("0xfail"); !ok || status != dedup.StatusSkipped {
		t.Error("expected failed trade marked skipped in the ledger")
	}

	h.source.events <- testEvent("0xfail")
	time.Sleep(50 * time.Millisecond)
	if got := h.submitter.submitted(); got != 1 {
		t.Errorf("failed trade must not be resubmitted, got %d submissions", got)
	}
}

func TestEngine_SuccessfulCopyMarkedDone(t *testing.T) {
	h := newHarness(t, 500)
	cancel, done := runEngine(t, h)
	defer func() { cancel(); <-done }()

	h.source.events <- testEvent("0xok")

	waitFor(t, func() bool { return h.tracker.Snapshot().CopiedTradeCount == 1 })

	if status, ok := h.ledger.Status("0xok"); !ok || status != dedup.StatusDone {
		t.Error("expected copied trade marked done in the ledger")
	}
}

func TestEngine_SyncsBalanceBeforeProcessing(t *testing.T) {
	// Live mode starts with an unknown balance; without an upfront sync the
	// first buys would be denied against zero until the sync ticker fired.
	h := newHarness(t, 0)
	h.engine.balanceFunc = func(ctx context.Context) (float64, error) { return 500, nil }
	h.engine.syncInterval = time.Hour

	cancel, done := runEngine(t, h)
	defer func() { cancel(); <-done }()

	h.source.events <- testEvent("0xearly")

	waitFor(t, func() bool { return h.tracker.Snapshot().CopiedTradeCount == 1 })

	if got := h.submitter.submitted(); got != 1 {
		t.Errorf("expected the early trade submitted after the startup sync, got %d", got)
	}

	if balance := h.tracker.Snapshot().Balance; balance != 490 {
		t.Errorf("expected balance 490 after sync and $10 buy, got %f", balance)
	}
}
