// Package metrics holds the till's Prometheus collectors. They register with
// the default registry and are served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Orders ─────────────────────────────────────────────────────────────────

var OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "brasa",
	Subsystem: "orders",
	Name:      "created_total",
	Help:      "Orders opened at the till.",
})

var OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "brasa",
	Subsystem: "orders",
	Name:      "cancelled_total",
	Help:      "Awaiting orders cancelled and refunded.",
})

var OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "brasa",
	Subsystem: "orders",
	Name:      "transitions_total",
	Help:      "Order status transitions by target status.",
}, []string{"status"})

var UnitsSold = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "brasa",
	Subsystem: "orders",
	Name:      "units_sold_total",
	Help:      "Units sold at order creation. Cancellations are counted separately.",
})

// ─── Payments ───────────────────────────────────────────────────────────────

var Payments = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "brasa",
	Subsystem: "payments",
	Name:      "settled_total",
	Help:      "Payments settled by method.",
}, []string{"method"})

var PaymentAmountCents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "brasa",
	Subsystem: "payments",
	Name:      "amount_cents_total",
	Help:      "Settled amount in cents by method.",
}, []string{"method"})

// ─── Day ────────────────────────────────────────────────────────────────────

var DaysClosed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "brasa",
	Subsystem: "day",
	Name:      "closed_total",
	Help:      "Days closed into a historical summary.",
})

var LowStockProducts = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "brasa",
	Subsystem: "day",
	Name:      "low_stock_products",
	Help:      "Products at or below the low stock threshold at last check.",
})

// ─── Service ────────────────────────────────────────────────────────────────

var NotApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "brasa",
	Subsystem: "service",
	Name:      "not_applied_total",
	Help:      "Operations rejected because their preconditions did not hold.",
}, []string{"operation"})

var PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "brasa",
	Subsystem: "store",
	Name:      "failures_total",
	Help:      "Repository calls that failed, by operation.",
}, []string{"operation"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "brasa",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route and status class.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})
