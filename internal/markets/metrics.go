package markets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MetadataCacheHitsTotal counts market resolutions served from cache.
	MetadataCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_market_metadata_cache_hits_total",
		Help: "Total market metadata cache hits",
	})

	// MetadataCacheMissesTotal counts market resolutions that hit Gamma.
	MetadataCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_market_metadata_cache_misses_total",
		Help: "Total market metadata cache misses",
	})
)
