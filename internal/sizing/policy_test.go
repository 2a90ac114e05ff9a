package sizing

import (
	"testing"
	"time"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
)

func testEvent(side types.Side, size, price float64) *types.TradeEvent {
	return &types.TradeEvent{
		SourceTradeID: "0xabc",
		Wallet:        "0xtarget",
		MarketID:      "cond-1",
		TokenID:       "token-1",
		Side:          side,
		Size:          size,
		Price:         price,
		Timestamp:     time.Now(),
		Origin:        types.OriginStream,
	}
}

func testMarket() *types.Market {
	return &types.Market{
		ID:          "m-1",
		ConditionID: "cond-1",
		Question:    "Will it rain tomorrow?",
		Active:      true,
	}
}

func testSnapshot() types.AccountState {
	return types.AccountState{
		Balance:   1000,
		Positions: map[string]float64{},
	}
}

func TestSize_FixedModeNotional(t *testing.T) {
	p := New(Config{Mode: ModeFixed, FixedAmount: 10.0})

	// Incoming BUY of size 5 @ 0.42 must produce notional 10.0 regardless
	// of source size.
	order, skip := p.Size(testEvent(types.SideBuy, 5, 0.42), testMarket(), testSnapshot())
	if skip != nil {
		t.Fatalf("unexpected skip: %s", skip.Reason)
	}

	if got := order.Notional; got < 9.999 || got > 10.001 {
		t.Errorf("expected notional 10.0, got %f", got)
	}

	if order.PriceLimit != 0.42 {
		t.Errorf("expected price limit 0.42, got %f", order.PriceLimit)
	}
}

func TestSize_ProportionalMode(t *testing.T) {
	p := New(Config{Mode: ModeProportional, ScaleFactor: 0.5})

	order, skip := p.Size(testEvent(types.SideBuy, 20, 0.5), testMarket(), testSnapshot())
	if skip != nil {
		t.Fatalf("unexpected skip: %s", skip.Reason)
	}

	if order.Size != 10 {
		t.Errorf("expected size 10, got %f", order.Size)
	}

	if order.Notional != 5 {
		t.Errorf("expected notional 5, got %f", order.Notional)
	}
}

func TestSize_MirrorMode(t *testing.T) {
	p := New(Config{Mode: ModeMirror})

	order, skip := p.Size(testEvent(types.SideBuy, 7.5, 0.3), testMarket(), testSnapshot())
	if skip != nil {
		t.Fatalf("unexpected skip: %s", skip.Reason)
	}

	if order.Size != 7.5 {
		t.Errorf("expected mirrored size 7.5, got %f", order.Size)
	}
}

func TestSize_SkipUnsupportedMarket(t *testing.T) {
	p := New(Config{Mode: ModeMirror})

	if _, skip := p.Size(testEvent(types.SideBuy, 5, 0.5), nil, testSnapshot()); skip == nil {
		t.Error("expected skip for missing market")
	}

	closed := testMarket()
	closed.Closed = true
	if _, skip := p.Size(testEvent(types.SideBuy, 5, 0.5), closed, testSnapshot()); skip == nil {
		t.Error("expected skip for closed market")
	}
}

func TestSize_SkipSellWithoutPosition(t *testing.T) {
	p := New(Config{Mode: ModeMirror})

	_, skip := p.Size(testEvent(types.SideSell, 5, 0.5), testMarket(), testSnapshot())
	if skip == nil {
		t.Fatal("expected skip for sell without position")
	}
}

func TestSize_SellCappedAtHeldPosition(t *testing.T) {
	p := New(Config{Mode: ModeMirror})

	snap := testSnapshot()
	snap.Positions["cond-1"] = 3

	order, skip := p.Size(testEvent(types.SideSell, 10, 0.5), testMarket(), snap)
	if skip != nil {
		t.Fatalf("unexpected skip: %s", skip.Reason)
	}

	if order.Size != 3 {
		t.Errorf("expected sell capped at held size 3, got %f", order.Size)
	}
}

func TestSize_SkipZeroNotional(t *testing.T) {
	p := New(Config{Mode: ModeProportional, ScaleFactor: 0.0001})

	_, skip := p.Size(testEvent(types.SideBuy, 0.01, 0.01), testMarket(), testSnapshot())
	if skip == nil {
		t.Fatal("expected skip for notional rounding to zero")
	}
}

func TestSize_SkipZeroPrice(t *testing.T) {
	p := New(Config{Mode: ModeFixed, FixedAmount: 10})

	_, skip := p.Size(testEvent(types.SideBuy, 5, 0), testMarket(), testSnapshot())
	if skip == nil {
		t.Fatal("expected skip for zero price")
	}
}

func TestSize_IsPure(t *testing.T) {
	p := New(Config{Mode: ModeProportional, ScaleFactor: 2})
	ev := testEvent(types.SideBuy, 5, 0.5)
	snap := testSnapshot()

	first, _ := p.Size(ev, testMarket(), snap)
	second, _ := p.Size(ev, testMarket(), snap)

	if first.Size != second.Size || first.Notional != second.Notional {
		t.Error("expected identical decisions for identical inputs")
	}
}
