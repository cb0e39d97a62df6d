package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueDepth is refreshed whenever the admin stats endpoint is read.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "candy",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Tasks per queue and state at the last stats read.",
	}, []string{"queue", "state"})

	QueueEnqueuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "candy",
		Subsystem: "queue",
		Name:      "enqueued_total",
		Help:      "Tasks enqueued by type.",
	}, []string{"type"})

	QueueProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "candy",
		Subsystem: "queue",
		Name:      "processed_total",
		Help:      "Tasks handled by type and outcome.",
	}, []string{"type", "status"})
)
