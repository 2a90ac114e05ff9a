package types

import "time"

// AccountState is a snapshot of the copying account's bookkeeping.
// The reconciliation tracker is the sole writer; everything else reads
// value copies, so Positions is cloned on snapshot.
type AccountState struct {
	Balance          float64
	Positions        map[string]float64 // market ID -> net size
	CumulativePnL    float64
	CopiedTradeCount int
	SessionVolume    float64 // filled notional accumulated this session (UTC day)
	UpdatedAt        time.Time
}

// Clone returns a deep copy safe for concurrent readers.
func (s AccountState) Clone() AccountState {
	out := s
	out.Positions = make(map[string]float64, len(s.Positions))
	for k, v := range s.Positions {
		out.Positions[k] = v
	}
	return out
}

// Outcome classifies a processed event in the activity log.
type Outcome string

const (
	OutcomeCopied  Outcome = "copied"
	OutcomeSkipped Outcome = "skipped" // sizing policy skip
	OutcomeDenied  Outcome = "denied"  // safety gate denial
	OutcomeFailed  Outcome = "failed"  // execution rejected or failed
)

// ActivityRecord is one entry in the ordered activity log: what the target
// did and what the engine did about it. This is the surface the dashboard
// and CLI consume.
type ActivityRecord struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	SourceID    string    `json:"source_trade_id"`
	MarketID    string    `json:"market_id"`
	Question    string    `json:"question,omitempty"`
	Side        Side      `json:"side"`
	SourceSize  float64   `json:"source_size"`
	SourcePrice float64   `json:"source_price"`
	Outcome     Outcome   `json:"outcome"`
	Reason      string    `json:"reason,omitempty"`
	CopiedSize  float64   `json:"copied_size,omitempty"`
	CopiedPrice float64   `json:"copied_price,omitempty"`
	OrderID     string    `json:"order_id,omitempty"`
}
