package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

func tradesServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestMonitor_PollPathForwardsOldestFirst(t *testing.T) {
	// Data API returns newest first; the monitor must flip the order.
	server := tradesServer(t, `[
		{"transactionHash":"0xnew","proxyWallet":"0xw","conditionId":"cond-1","asset":"tok-1","side":"BUY","size":10,"price":0.5,"timestamp":1756250100},
		{"transactionHash":"0xold","proxyWallet":"0xw","conditionId":"cond-1","asset":"tok-1","side":"BUY","size":10,"price":0.5,"timestamp":1756250000}
	]`)
	defer server.Close()

	m := New(Config{
		Wallet:       "0xw",
		DataClient:   NewDataAPIClient(server.URL, zap.NewNop()),
		PollInterval: 20 * time.Millisecond,
		PollLookback: 50,
		Logger:       zap.NewNop(),
	})

	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Close()

	first := receiveEvent(t, m)
	second := receiveEvent(t, m)

	if first.SourceTradeID != "0xold" {
		t.Errorf("expected oldest trade first, got %s", first.SourceTradeID)
	}

	if second.SourceTradeID != "0xnew" {
		t.Errorf("expected newest trade second, got %s", second.SourceTradeID)
	}

	if first.Origin != types.OriginPoll {
		t.Errorf("expected poll origin, got %s", first.Origin)
	}
}

func TestMonitor_DropsMalformedPollEvents(t *testing.T) {
	server := tradesServer(t, `[
		{"transactionHash":"0xgood","proxyWallet":"0xw","conditionId":"cond-1","asset":"tok-1","side":"BUY","size":10,"price":0.5,"timestamp":1756250000},
		{"transactionHash":"","proxyWallet":"0xw","conditionId":"cond-1","asset":"tok-1","side":"BUY","size":10,"price":0.5,"timestamp":1756250001}
	]`)
	defer server.Close()

	m := New(Config{
		Wallet:       "0xw",
		DataClient:   NewDataAPIClient(server.URL, zap.NewNop()),
		PollInterval: 20 * time.Millisecond,
		PollLookback: 50,
		Logger:       zap.NewNop(),
	})

	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Close()

	event := receiveEvent(t, m)
	if event.SourceTradeID != "0xgood" {
		t.Errorf("expected only the well-formed event, got %s", event.SourceTradeID)
	}
}

func TestMonitor_RecentHistoryReturnsIDs(t *testing.T) {
	server := tradesServer(t, `[
		{"transactionHash":"0xAAA","proxyWallet":"0xw","conditionId":"cond-1","asset":"tok-1","side":"BUY","size":10,"price":0.5,"timestamp":1756250000},
		{"transactionHash":"0xBBB","proxyWallet":"0xw","conditionId":"cond-2","asset":"tok-2","side":"SELL","size":5,"price":0.3,"timestamp":1756249000}
	]`)
	defer server.Close()

	m := New(Config{
		Wallet:       "0xw",
		DataClient:   NewDataAPIClient(server.URL, zap.NewNop()),
		PollInterval: time.Minute,
		PollLookback: 50,
		Logger:       zap.NewNop(),
	})

	ids, err := m.RecentHistory(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ids) != 2 || ids[0] != "0xaaa" || ids[1] != "0xbbb" {
		t.Errorf("unexpected history IDs: %v", ids)
	}
}

func tradeJSON(hash string, ts int64) string {
	return fmt.Sprintf(`{"transactionHash":%q,"proxyWallet":"0xw","conditionId":"cond-1","asset":"tok-1","side":"BUY","size":10,"price":0.5,"timestamp":%d}`, hash, ts)
}

func TestMonitor_PollPagesBeyondLookbackAfterGap(t *testing.T) {
	var mu sync.Mutex
	trades := []string{tradeJSON("0xa", 1756250000)}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset > len(trades) {
			offset = len(trades)
		}
		end := offset + limit
		if end > len(trades) {
			end = len(trades)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[" + strings.Join(trades[offset:end], ",") + "]"))
	}))
	defer server.Close()

	m := New(Config{
		Wallet:       "0xw",
		DataClient:   NewDataAPIClient(server.URL, zap.NewNop()),
		PollInterval: 20 * time.Millisecond,
		PollLookback: 2,
		Logger:       zap.NewNop(),
	})

	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Close()

	if first := receiveEvent(t, m); first.SourceTradeID != "0xa" {
		t.Fatalf("expected initial trade 0xa, got %s", first.SourceTradeID)
	}

	// Twice the lookback's worth of new trades arrives between polls, as
	// after a stream outage; every one of them must still come through.
	mu.Lock()
	trades = []string{
		tradeJSON("0xe", 1756250004),
		tradeJSON("0xd", 1756250003),
		tradeJSON("0xc", 1756250002),
		tradeJSON("0xb", 1756250001),
		tradeJSON("0xa", 1756250000),
	}
	mu.Unlock()

	got := make(map[string]bool)
	deadline := time.After(2 * time.Second)
	for len(got) < 4 {
		select {
		case event := <-m.Events():
			if event.SourceTradeID != "0xa" {
				got[event.SourceTradeID] = true
			}
		case <-deadline:
			t.Fatalf("missed trades after gap, got only %v", got)
		}
	}
}

func receiveEvent(t *testing.T, m *Monitor) *types.TradeEvent {
	t.Helper()
	select {
	case event := <-m.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}
