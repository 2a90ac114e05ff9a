// Package execution submits copy orders with bounded retry and
// deterministic idempotency keys.
package execution

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

// idempotencyNamespace seeds the deterministic per-trade submission key.
var idempotencyNamespace = uuid.MustParse("9f2c1f6e-43a7-4d2b-8e1a-7c5b0d3e9a41")

// errNothingFilled marks an accepted order that reported zero fill.
var errNothingFilled = errors.New("order accepted but nothing filled")

// Facade wraps an OrderSink with retry, classification and result shaping.
// One call to Submit produces exactly one logical ExecutionResult no
// matter how many submission attempts it took.
type Facade struct {
	sink   OrderSink
	policy RetryPolicy
	logger *zap.Logger
}

// NewFacade creates an execution facade over the given sink.
func NewFacade(sink OrderSink, policy RetryPolicy, logger *zap.Logger) *Facade {
	return &Facade{
		sink:   sink,
		policy: policy,
		logger: logger,
	}
}

// IdempotencyKey derives the submission key for a source trade. The key
// depends only on the source trade ID, so a crash-and-retry of the same
// trade produces the same key.
func IdempotencyKey(sourceTradeID string) string {
	return uuid.NewSHA1(idempotencyNamespace, []byte(sourceTradeID)).String()
}

// Submit places the order, retrying transient failures up to the policy's
// attempt budget. Terminal failures and exhausted retries both yield a
// result; only fatal auth errors are returned as errors so the caller can
// halt the session.
func (f *Facade) Submit(ctx context.Context, order *types.CopyOrder) (*types.ExecutionResult, error) {
	key := IdempotencyKey(order.SourceTradeID)

	result := &types.ExecutionResult{
		SourceTradeID: order.SourceTradeID,
		SubmittedAt:   time.Now().UTC(),
	}

	var lastErr error
	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		result.Attempts = attempt

		resp, err := f.sink.PlaceOrder(ctx, order, key)
		if err == nil {
			OrdersSubmittedTotal.WithLabelValues(string(order.Side)).Inc()
			return f.shapeResult(result, order, resp), nil
		}

		var authErr *types.FatalAuthError
		if errors.As(err, &authErr) {
			return nil, err
		}

		lastErr = err

		if !types.IsTransient(err) {
			f.logger.Warn("order-rejected",
				zap.String("source-trade-id", order.SourceTradeID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			break
		}

		RetriesTotal.Inc()
		f.logger.Warn("order-submission-failed",
			zap.String("source-trade-id", order.SourceTradeID),
			zap.Int("attempt", attempt),
			zap.Int("max-attempts", f.policy.MaxAttempts),
			zap.Error(err))

		if attempt == f.policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			result.Status = types.ExecFailed
			result.Err = ctx.Err()
			return result, nil
		case <-time.After(f.policy.Delay(attempt)):
		}
	}

	var orderErr *types.OrderError
	if errors.As(lastErr, &orderErr) && !types.IsTransient(lastErr) {
		result.Status = types.ExecRejected
	} else {
		result.Status = types.ExecFailed
	}
	result.Err = lastErr

	OrdersFailedTotal.WithLabelValues(string(result.Status)).Inc()
	return result, nil
}

// shapeResult maps a sink response onto the logical execution result.
// An accepted order with no fill reported counts as rejected rather than
// filled, so account state never credits phantom fills. A reported fill
// larger than the order is clamped for the same reason.
func (f *Facade) shapeResult(result *types.ExecutionResult, order *types.CopyOrder, resp *OrderResponse) *types.ExecutionResult {
	filled := resp.FilledSize
	if filled > order.Size {
		f.logger.Warn("fill-exceeds-order-size",
			zap.String("source-trade-id", order.SourceTradeID),
			zap.Float64("reported", filled),
			zap.Float64("requested", order.Size))
		filled = order.Size
	}

	result.OrderID = resp.OrderID
	result.FilledSize = filled
	result.FilledPrice = resp.FilledPrice

	switch {
	case filled <= 0:
		result.Status = types.ExecRejected
		result.Err = errNothingFilled
	case filled < order.Size:
		result.Status = types.ExecPartial
	default:
		result.Status = types.ExecFilled
	}

	f.logger.Info("order-executed",
		zap.String("source-trade-id", order.SourceTradeID),
		zap.String("order-id", result.OrderID),
		zap.String("status", string(result.Status)),
		zap.Float64("filled-size", result.FilledSize),
		zap.Float64("filled-price", result.FilledPrice),
		zap.Int("attempts", result.Attempts))

	return result
}
