package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsForwardedTotal counts normalized trade events forwarded to the
	// engine, by origin path.
	EventsForwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrader_monitor_events_forwarded_total",
			Help: "Total trade events forwarded to the engine by origin",
		},
		[]string{"origin"},
	)

	// EventsDroppedTotal counts malformed events dropped at normalization.
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrader_monitor_events_dropped_total",
			Help: "Total malformed trade events dropped by origin",
		},
		[]string{"origin"},
	)

	// PollsTotal counts successful Data API poll cycles.
	PollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copytrader_monitor_polls_total",
			Help: "Total successful Data API poll cycles",
		},
	)

	// PollErrorsTotal counts failed Data API poll cycles.
	PollErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copytrader_monitor_poll_errors_total",
			Help: "Total failed Data API poll cycles",
		},
	)
)
