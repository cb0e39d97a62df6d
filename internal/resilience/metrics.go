package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breaker collectors, labelled by the dependency name passed to NewBreaker.
var (
	// BreakerState is the gauge form of State: 0 closed, 1 open, 2 half-open.
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "candy",
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Breaker state per dependency (0 closed, 1 open, 2 half-open).",
	}, []string{"dependency"})

	BreakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "candy",
		Subsystem: "breaker",
		Name:      "transitions_total",
		Help:      "Breaker state changes per dependency.",
	}, []string{"dependency", "from", "to"})

	BreakerOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "candy",
		Subsystem: "breaker",
		Name:      "opened_total",
		Help:      "Times the breaker tripped open.",
	}, []string{"dependency"})
)
