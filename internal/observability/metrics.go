package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "privacy_dispatch", Name: "orders_created_total", Help: "Total orders created"})
	OrdersAccepted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "privacy_dispatch", Name: "orders_accepted_total", Help: "Total orders accepted by a driver"})
	TripsCompleted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "privacy_dispatch", Name: "trips_completed_total", Help: "Total trips completed"})
	MatchesTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "privacy_dispatch", Name: "matches_total", Help: "Total match scans executed"})
	MatchLatency   = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "privacy_dispatch", Name: "match_latency_seconds", Help: "Match scan latency seconds"})
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "privacy_dispatch", Name: "events_published_total", Help: "Events handed to the fan-out layer"},
		[]string{"type"},
	)
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "privacy_dispatch", Name: "ws_clients", Help: "Connected websocket clients"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "privacy_dispatch", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "privacy_dispatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
