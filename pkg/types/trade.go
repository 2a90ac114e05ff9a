package types

import "time"

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Origin identifies which monitoring path delivered a trade event.
type Origin string

const (
	OriginStream Origin = "stream"
	OriginPoll   Origin = "poll"
)

// TradeEvent is a normalized trade observed on the target wallet.
// Identity is SourceTradeID (the settlement transaction hash); the same
// logical trade may arrive from both the stream and the poll path.
// Immutable once constructed.
type TradeEvent struct {
	SourceTradeID string
	Wallet        string
	MarketID      string // condition ID
	TokenID       string // outcome token (ERC1155 asset ID)
	Side          Side
	Size          float64
	Price         float64
	Timestamp     time.Time
	Origin        Origin
}

// Notional returns the USD value of the source trade.
func (e *TradeEvent) Notional() float64 {
	return e.Size * e.Price
}

// CopyOrder is the intended mirrored order derived from a TradeEvent.
// Consumed exactly once by the execution facade.
type CopyOrder struct {
	SourceTradeID string
	MarketID      string
	TokenID       string
	Side          Side
	Size          float64
	PriceLimit    float64
	Notional      float64
}

// ExecStatus is the terminal outcome of a submitted copy order.
type ExecStatus string

const (
	ExecFilled   ExecStatus = "FILLED"
	ExecPartial  ExecStatus = "PARTIAL"
	ExecRejected ExecStatus = "REJECTED"
	ExecFailed   ExecStatus = "FAILED"
)

// ExecutionResult is the single logical result of submitting a copy order,
// produced after the retry policy has been exhausted or a terminal response
// was received.
type ExecutionResult struct {
	SourceTradeID string
	OrderID       string
	Status        ExecStatus
	FilledSize    float64
	FilledPrice   float64
	Attempts      int
	SubmittedAt   time.Time
	Err           error
}

// Succeeded reports whether any size was filled.
func (r *ExecutionResult) Succeeded() bool {
	return r.Status == ExecFilled || r.Status == ExecPartial
}
