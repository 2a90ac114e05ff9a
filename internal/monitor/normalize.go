package monitor

import (
	"strings"
	"time"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"github.com/mselser95/polymarket-copytrader/pkg/websocket"
)

// normalizeDataAPITrade converts a Data API trade record into a TradeEvent.
func normalizeDataAPITrade(t *types.DataAPITrade, origin types.Origin) (*types.TradeEvent, error) {
	return normalize(rawTrade{
		TransactionHash: t.TransactionHash,
		ProxyWallet:     t.ProxyWallet,
		ConditionID:     t.ConditionID,
		Asset:           t.Asset,
		Side:            t.Side,
		Size:            t.Size,
		Price:           t.Price,
		Timestamp:       t.Timestamp,
	}, origin)
}

// normalizeStreamTrade converts a live-data feed message into a TradeEvent.
func normalizeStreamTrade(t *websocket.TradeMessage) (*types.TradeEvent, error) {
	return normalize(rawTrade{
		TransactionHash: t.TransactionHash,
		ProxyWallet:     t.ProxyWallet,
		ConditionID:     t.ConditionID,
		Asset:           t.Asset,
		Side:            t.Side,
		Size:            t.Size,
		Price:           t.Price,
		Timestamp:       t.Timestamp,
	}, types.OriginStream)
}

// rawTrade is the common shape of both upstream trade payloads.
type rawTrade struct {
	TransactionHash string
	ProxyWallet     string
	ConditionID     string
	Asset           string
	Side            string
	Size            float64
	Price           float64
	Timestamp       int64
}

// normalize validates and converts a raw trade. A trade without a
// transaction hash has no identity and cannot be deduplicated, so it is
// rejected rather than guessed at.
func normalize(t rawTrade, origin types.Origin) (*types.TradeEvent, error) {
	if t.TransactionHash == "" {
		return nil, &types.MalformedEventError{Origin: origin, Reason: "missing transaction hash"}
	}

	if t.ConditionID == "" {
		return nil, &types.MalformedEventError{Origin: origin, Reason: "missing condition id"}
	}

	var side types.Side
	switch strings.ToUpper(t.Side) {
	case "BUY":
		side = types.SideBuy
	case "SELL":
		side = types.SideSell
	default:
		return nil, &types.MalformedEventError{Origin: origin, Reason: "unknown side " + t.Side}
	}

	if t.Size <= 0 {
		return nil, &types.MalformedEventError{Origin: origin, Reason: "non-positive size"}
	}

	if t.Price <= 0 || t.Price > 1 {
		return nil, &types.MalformedEventError{Origin: origin, Reason: "price outside (0,1]"}
	}

	ts := time.Unix(t.Timestamp, 0).UTC()

	return &types.TradeEvent{
		SourceTradeID: strings.ToLower(t.TransactionHash),
		Wallet:        strings.ToLower(t.ProxyWallet),
		MarketID:      t.ConditionID,
		TokenID:       t.Asset,
		Side:          side,
		Size:          t.Size,
		Price:         t.Price,
		Timestamp:     ts,
		Origin:        origin,
	}, nil
}
