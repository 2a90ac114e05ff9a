package safety

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DenialsTotal tracks orders denied by the safety gate, by reason code.
var DenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "copytrader_safety_denials_total",
		Help: "Total number of copy orders denied by the safety gate",
	},
	[]string{"code"},
)
