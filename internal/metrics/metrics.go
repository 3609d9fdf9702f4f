// Package metrics — метрики Prometheus ядра бронирований.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	BookingsCreated  prometheus.Counter
	BookingsRejected *prometheus.CounterVec // label: reason
	BillingsCreated  prometheus.Counter
	BilledAmount     prometheus.Counter
	PricesSet        *prometheus.CounterVec // label: entity
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New регистрирует метрики в reg. В тестах передаётся свой prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "bookings_created_total",
			Help:      "Bookings accepted by the overlap guard.",
		}),
		BookingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "bookings_rejected_total",
			Help:      "Booking writes rejected, by error kind.",
		}, []string{"reason"}),
		BillingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "billings_created_total",
			Help:      "Billing documents created.",
		}),
		BilledAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "billed_amount_total",
			Help:      "Sum of billing totals.",
		}),
		PricesSet: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "prices_set_total",
			Help:      "New prices opened on a timeline.",
		}, []string{"entity"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studio",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.BookingsCreated,
		m.BookingsRejected,
		m.BillingsCreated,
		m.BilledAmount,
		m.PricesSet,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}
