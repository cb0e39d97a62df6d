package obs

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CandyDerivationsTotal counts pricing derivations by mode and resulting availability.
	CandyDerivationsTotal *prometheus.CounterVec
	// OrdersTotal counts order writes by operation (create, update, status).
	OrdersTotal *prometheus.CounterVec
	// OrderLinesDroppedTotal counts requested order lines whose catalog item was missing.
	OrderLinesDroppedTotal *prometheus.CounterVec
	// OrderRevenueMinor records order revenue in minor currency units.
	OrderRevenueMinor prometheus.Histogram
	// BackgroundJobsTotal counts worker task outcomes.
	BackgroundJobsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CandyDerivationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candy_derivations_total",
			Help:      "Count of candy pricing derivations by mode and availability.",
		}, []string{"mode", "available"})
		OrdersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Count of order writes by operation.",
		}, []string{"operation"})
		OrderLinesDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_lines_dropped_total",
			Help:      "Order lines dropped because the referenced catalog item no longer exists.",
		}, []string{"kind"})
		OrderRevenueMinor = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_revenue_minor",
			Help:      "Order revenue in minor currency units.",
			Buckets:   prometheus.ExponentialBuckets(1000, 2.5, 10),
		})
		BackgroundJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_jobs_total",
			Help:      "Count of background task executions by outcome.",
		}, []string{"task", "result"})

		CandyDerivationsTotal = register(reg, CandyDerivationsTotal)
		OrdersTotal = register(reg, OrdersTotal)
		OrderLinesDroppedTotal = register(reg, OrderLinesDroppedTotal)
		OrderRevenueMinor = register(reg, OrderRevenueMinor)
		BackgroundJobsTotal = register(reg, BackgroundJobsTotal)
	})
}

// RecordDerivation is a nil-safe helper around CandyDerivationsTotal.
func RecordDerivation(mode string, available bool) {
	if CandyDerivationsTotal == nil {
		return
	}
	CandyDerivationsTotal.WithLabelValues(mode, strconv.FormatBool(available)).Inc()
}

// RecordOrder counts an order write and, for non-negative revenue, observes it.
func RecordOrder(operation string, revenueMinor int64) {
	if OrdersTotal != nil {
		OrdersTotal.WithLabelValues(operation).Inc()
	}
	if OrderRevenueMinor != nil && revenueMinor >= 0 {
		OrderRevenueMinor.Observe(float64(revenueMinor))
	}
}

// RecordDroppedLine counts a dropped order line of the given kind.
func RecordDroppedLine(kind string) {
	if OrderLinesDroppedTotal == nil {
		return
	}
	OrderLinesDroppedTotal.WithLabelValues(kind).Inc()
}

// RecordJob counts a background task outcome.
func RecordJob(task string, err error) {
	if BackgroundJobsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	BackgroundJobsTotal.WithLabelValues(task, result).Inc()
}
