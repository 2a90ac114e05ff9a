package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersSubmittedTotal tracks accepted order submissions by side.
	OrdersSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrader_orders_submitted_total",
			Help: "Total number of copy orders accepted by the execution sink",
		},
		[]string{"side"},
	)

	// OrdersFailedTotal tracks terminally failed submissions by final status.
	OrdersFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrader_orders_failed_total",
			Help: "Total number of copy orders that ended rejected or failed",
		},
		[]string{"status"},
	)

	// RetriesTotal tracks transient submission failures that triggered a retry.
	RetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copytrader_order_retries_total",
			Help: "Total number of transient order submission failures",
		},
	)
)
