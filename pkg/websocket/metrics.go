package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks active WebSocket connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "copytrader_ws_active_connections",
		Help: "Number of active WebSocket connections",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_ws_reconnect_attempts_total",
		Help: "Total number of WebSocket reconnection attempts",
	})

	// ReconnectFailuresTotal tracks reconnection failures.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_ws_reconnect_failures_total",
		Help: "Total number of WebSocket reconnection failures",
	})

	// MessagesReceivedTotal tracks trade messages received from the stream.
	MessagesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_ws_messages_received_total",
		Help: "Total number of trade messages received over WebSocket",
	})

	// MessagesDroppedTotal tracks messages dropped by reason.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrader_ws_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped",
		},
		[]string{"reason"},
	)
)
