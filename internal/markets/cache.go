package markets

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/polymarket-copytrader/pkg/cache"
	"github.com/mselser95/polymarket-copytrader/pkg/types"
)

// Resolver resolves a condition ID to market metadata.
type Resolver interface {
	Resolve(ctx context.Context, conditionID string) (*types.Market, error)
}

// CachedResolver wraps a Resolver with TTL caching. Metadata changes
// rarely (closure, resolution), so a short TTL keeps staleness bounded
// without hitting Gamma on every trade.
type CachedResolver struct {
	inner Resolver
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedResolver creates a cached resolver.
func NewCachedResolver(inner Resolver, c cache.Cache, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &CachedResolver{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

// Resolve returns the cached market or fetches and caches it.
func (r *CachedResolver) Resolve(ctx context.Context, conditionID string) (*types.Market, error) {
	key := fmt.Sprintf("market:%s", conditionID)

	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			if market, ok := cached.(*types.Market); ok {
				MetadataCacheHitsTotal.Inc()
				return market, nil
			}
		}
		MetadataCacheMissesTotal.Inc()
	}

	market, err := r.inner.Resolve(ctx, conditionID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Set(key, market, r.ttl)
	}

	return market, nil
}
