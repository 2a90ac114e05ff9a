package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PhaseGauge exposes the engine lifecycle phase as its numeric value.
	PhaseGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "copytrader_engine_phase",
			Help: "Current engine phase (0=idle 1=connecting 2=running 3=reconnecting 4=stopping)",
		},
	)

	// EventsProcessedTotal counts first-seen events entering the pipeline.
	EventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrader_engine_events_processed_total",
			Help: "Total first-seen trade events entering the pipeline by origin",
		},
		[]string{"origin"},
	)
)
