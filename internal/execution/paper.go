package execution

import (
	"context"
	"fmt"
	"sync"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

// PaperSink simulates order execution without touching the CLOB. Every
// order fills fully at its price limit. Submissions are keyed by the
// idempotency key so a retried submission returns the original fill.
type PaperSink struct {
	logger *zap.Logger

	mu     sync.Mutex
	seq    int
	orders map[string]*OrderResponse
}

// NewPaperSink creates a paper trading sink.
func NewPaperSink(logger *zap.Logger) *PaperSink {
	return &PaperSink{
		logger: logger,
		orders: make(map[string]*OrderResponse),
	}
}

// PlaceOrder simulates a full fill at the order's price limit.
func (p *PaperSink) PlaceOrder(ctx context.Context, order *types.CopyOrder, idempotencyKey string) (*OrderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.TransportError{Op: "paper submit", Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.orders[idempotencyKey]; ok {
		p.logger.Debug("paper-order-replayed",
			zap.String("source-trade-id", order.SourceTradeID),
			zap.String("order-id", prev.OrderID))
		return prev, nil
	}

	p.seq++
	resp := &OrderResponse{
		OrderID:     fmt.Sprintf("paper-%d", p.seq),
		Status:      "matched",
		FilledSize:  order.Size,
		FilledPrice: order.PriceLimit,
	}
	p.orders[idempotencyKey] = resp

	p.logger.Info("paper-order-filled",
		zap.String("source-trade-id", order.SourceTradeID),
		zap.String("order-id", resp.OrderID),
		zap.String("side", string(order.Side)),
		zap.Float64("size", order.Size),
		zap.Float64("price", order.PriceLimit))

	return resp, nil
}
