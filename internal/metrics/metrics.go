// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_http_requests_total",
		Help: "HTTP requests by route template, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backoffice_http_request_duration_seconds",
		Help:    "HTTP request latency by route template.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	FaresCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_fares_created_total",
		Help: "Fare matrix rows created by regeneration or route copy.",
	})

	RoutesCopied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_routes_copied_total",
		Help: "Routes duplicated from an existing route.",
	})

	ScheduleConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_schedule_conflicts_total",
		Help: "Rejected schedule writes by reason.",
	}, []string{"reason"})

	Bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_bookings_total",
		Help: "Booking state transitions.",
	}, []string{"status"})
)
