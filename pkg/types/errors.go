package types

import (
	"errors"
	"fmt"
)

// Known Polymarket CLOB API error codes.
const (
	ErrInvalidMinTickSize = "INVALID_ORDER_MIN_TICK_SIZE"
	ErrNotEnoughBalance   = "INVALID_ORDER_NOT_ENOUGH_BALANCE"
	ErrFOKNotFilled       = "FOK_ORDER_NOT_FILLED_ERROR"
	ErrMarketNotReady     = "MARKET_NOT_READY"
	ErrRateLimited        = "RATE_LIMITED"
	ErrUnmatched          = "UNMATCHED"
	ErrUnknownStatus      = "UNKNOWN_STATUS"
)

// ErrConnectionLost is returned by the engine when reconnection attempts
// to the event source are exhausted. Requires operator intervention.
var ErrConnectionLost = errors.New("event source connection lost")

// TransportError wraps a recoverable network-level failure. It triggers
// reconnect/backoff, never an engine halt.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedEventError marks a payload that could not be normalized into a
// TradeEvent. Dropped and logged, never fatal.
type MalformedEventError struct {
	Origin Origin
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event from %s: %s", e.Origin, e.Reason)
}

// FatalAuthError marks an authentication failure from the execution sink.
// The engine halts on this; retrying cannot help.
type FatalAuthError struct {
	StatusCode int
	Message    string
}

func (e *FatalAuthError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Message)
}

// OrderError represents an error returned by the CLOB for a submitted order.
type OrderError struct {
	Code    string
	Message string
	OrderID string
}

func (e *OrderError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("order %s failed: %s (%s)", e.OrderID, e.Message, e.Code)
	}

	return fmt.Sprintf("order failed: %s (%s)", e.Message, e.Code)
}

// IsTransient reports whether an execution failure is worth retrying.
// Transport failures and rate limiting are transient; auth failures and
// order-level rejections are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var authErr *FatalAuthError
	if errors.As(err, &authErr) {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}

	var orderErr *OrderError
	if errors.As(err, &orderErr) {
		return orderErr.Code == ErrRateLimited
	}

	// Unclassified errors from the HTTP layer (timeouts, resets) are
	// treated as transport-level and retried.
	return true
}
