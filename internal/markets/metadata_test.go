package markets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mselser95/polymarket-copytrader/pkg/cache"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
	"go.uber.org/zap"
)

const gammaMarketJSON = `[{
	"id": "12345",
	"conditionId": "0xcond",
	"question": "Will it happen?",
	"slug": "will-it-happen",
	"closed": false,
	"active": true,
	"outcomes": "[\"Yes\", \"No\"]",
	"clobTokenIds": "[\"tok-yes\", \"tok-no\"]"
}]`

func TestResolve_ParsesMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("condition_ids"); got != "0xcond" {
			t.Errorf("expected condition_ids=0xcond, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(gammaMarketJSON))
	}))
	defer server.Close()

	client := NewMetadataClient(server.URL, zap.NewNop())

	market, err := client.Resolve(context.Background(), "0xcond")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if market.ConditionID != "0xcond" {
		t.Errorf("expected condition 0xcond, got %s", market.ConditionID)
	}

	if !market.Tradable() {
		t.Error("expected market tradable")
	}

	if len(market.Tokens) != 2 || market.Tokens[0].TokenID != "tok-yes" {
		t.Errorf("unexpected tokens: %+v", market.Tokens)
	}
}

func TestResolve_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewMetadataClient(server.URL, zap.NewNop())

	if _, err := client.Resolve(context.Background(), "0xmissing"); err == nil {
		t.Fatal("expected error for unknown condition")
	}
}

func TestResolve_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewMetadataClient(server.URL, zap.NewNop())

	_, err := client.Resolve(context.Background(), "0xcond")
	var transport *types.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

type countingResolver struct {
	calls  atomic.Int64
	market *types.Market
	err    error
}

func (c *countingResolver) Resolve(ctx context.Context, conditionID string) (*types.Market, error) {
	c.calls.Add(1)
	return c.market, c.err
}

func TestCachedResolver_CachesResults(t *testing.T) {
	inner := &countingResolver{
		market: &types.Market{ConditionID: "0xcond", Active: true},
	}

	store, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	defer store.Close()

	resolver := NewCachedResolver(inner, store, time.Minute)

	if _, err := resolver.Resolve(context.Background(), "0xcond"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// Ristretto applies sets asynchronously.
	store.(*cache.RistrettoCache).Wait()

	if _, err := resolver.Resolve(context.Background(), "0xcond"); err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if got := inner.calls.Load(); got != 1 {
		t.Errorf("expected 1 upstream call, got %d", got)
	}
}

func TestCachedResolver_ErrorsNotCached(t *testing.T) {
	inner := &countingResolver{err: errors.New("gamma down")}

	store, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	defer store.Close()

	resolver := NewCachedResolver(inner, store, time.Minute)

	resolver.Resolve(context.Background(), "0xcond")
	resolver.Resolve(context.Background(), "0xcond")

	if got := inner.calls.Load(); got != 2 {
		t.Errorf("expected errors to bypass cache, got %d upstream calls", got)
	}
}
