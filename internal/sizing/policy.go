// Package sizing maps observed target trades to intended copy orders.
package sizing

import (
	"fmt"
	"math"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
)

// Copy modes.
const (
	ModeProportional = "proportional"
	ModeFixed        = "fixed"
	ModeMirror       = "mirror"
)

// minNotional is the smallest order value worth submitting; anything below
// rounds to zero at USDC precision on the CLOB.
const minNotional = 0.01

// Skip is a deliberate decision not to copy a trade.
type Skip struct {
	Reason string
}

// Policy computes copy order sizes. It is pure: the same event, market and
// snapshot always produce the same decision, and nothing is mutated.
type Policy struct {
	mode        string
	scaleFactor float64
	fixedAmount float64
}

// Config holds sizing policy configuration.
type Config struct {
	Mode        string
	ScaleFactor float64
	FixedAmount float64
}

// New creates a sizing policy.
func New(cfg Config) *Policy {
	return &Policy{
		mode:        cfg.Mode,
		scaleFactor: cfg.ScaleFactor,
		fixedAmount: cfg.FixedAmount,
	}
}

// Size maps a trade event to a copy order, or a Skip with a human-readable
// reason. The account snapshot may be slightly stale; staleness is bounded
// by the engine's sequential processing.
func (p *Policy) Size(event *types.TradeEvent, market *types.Market, snap types.AccountState) (*types.CopyOrder, *Skip) {
	if market == nil || !market.Tradable() {
		return nil, &Skip{Reason: "market unsupported or closed"}
	}

	if event.Price <= 0 {
		return nil, &Skip{Reason: "source trade has no usable price"}
	}

	if event.Side == types.SideSell && snap.Positions[event.MarketID] <= 0 {
		return nil, &Skip{Reason: "sell without held position"}
	}

	var size float64
	switch p.mode {
	case ModeMirror:
		size = event.Size
	case ModeFixed:
		size = p.fixedAmount / event.Price
	case ModeProportional:
		size = event.Size * p.scaleFactor
	default:
		return nil, &Skip{Reason: fmt.Sprintf("unknown copy mode %q", p.mode)}
	}

	// Selling more than we hold would fail at the exchange; cap at the
	// reconciled position.
	if event.Side == types.SideSell {
		if held := snap.Positions[event.MarketID]; size > held {
			size = held
		}
	}

	notional := size * event.Price
	if notional < minNotional || math.IsNaN(notional) || math.IsInf(notional, 0) {
		return nil, &Skip{Reason: "computed notional rounds to zero"}
	}

	return &types.CopyOrder{
		SourceTradeID: event.SourceTradeID,
		MarketID:      event.MarketID,
		TokenID:       event.TokenID,
		Side:          event.Side,
		Size:          size,
		PriceLimit:    event.Price,
		Notional:      notional,
	}, nil
}
