package dedup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntriesGauge tracks the number of tracked source trade IDs.
	EntriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "copytrader_dedup_entries",
		Help: "Number of source trade IDs tracked by the dedup ledger",
	})

	// DuplicatesTotal tracks observations that were already seen.
	DuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_dedup_duplicates_total",
		Help: "Total number of duplicate trade observations",
	})

	// EvictionsTotal tracks entries removed by the retention sweep.
	EvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_dedup_evictions_total",
		Help: "Total number of ledger entries evicted by retention",
	})
)
