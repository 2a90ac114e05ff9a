package execution

import (
	"context"
	"testing"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

func paperOrder(id string) *types.CopyOrder {
	return &types.CopyOrder{
		SourceTradeID: id,
		MarketID:      "cond-1",
		TokenID:       "tok-1",
		Side:          types.SideBuy,
		Size:          20,
		PriceLimit:    0.5,
		Notional:      10,
	}
}

func TestPaperSink_FillsAtPriceLimit(t *testing.T) {
	sink := NewPaperSink(zap.NewNop())

	resp, err := sink.PlaceOrder(context.Background(), paperOrder("0xaaa"), "key-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.FilledSize != 20 {
		t.Errorf("expected full fill of 20, got %f", resp.FilledSize)
	}

	if resp.FilledPrice != 0.5 {
		t.Errorf("expected fill at price limit 0.5, got %f", resp.FilledPrice)
	}

	if resp.OrderID == "" {
		t.Error("expected a simulated order ID")
	}
}

func TestPaperSink_ReplaysByIdempotencyKey(t *testing.T) {
	sink := NewPaperSink(zap.NewNop())

	first, err := sink.PlaceOrder(context.Background(), paperOrder("0xbbb"), "key-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := sink.PlaceOrder(context.Background(), paperOrder("0xbbb"), "key-b")
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}

	if second.OrderID != first.OrderID {
		t.Errorf("retried submission must return the original fill, got %s and %s", first.OrderID, second.OrderID)
	}
}

func TestPaperSink_DistinctKeysGetDistinctOrders(t *testing.T) {
	sink := NewPaperSink(zap.NewNop())

	a, _ := sink.PlaceOrder(context.Background(), paperOrder("0xccc"), "key-c")
	b, _ := sink.PlaceOrder(context.Background(), paperOrder("0xddd"), "key-d")

	if a.OrderID == b.OrderID {
		t.Error("distinct trades must get distinct simulated orders")
	}
}

func TestPaperSink_CancelledContextIsTransient(t *testing.T) {
	sink := NewPaperSink(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sink.PlaceOrder(ctx, paperOrder("0xeee"), "key-e")
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}

	if !types.IsTransient(err) {
		t.Errorf("cancelled submit should classify transient, got %v", err)
	}
}
