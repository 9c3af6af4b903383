package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modchat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Routing metrics
	RoutingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modchat_routing_decisions_total",
			Help: "Routing decisions by selected agent",
		},
		[]string{"agent"},
	)

	HandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modchat_handler_failures_total",
			Help: "Handler processing failures",
		},
		[]string{"agent", "kind"}, // kind: "error" or "timeout"
	)

	// Security metrics
	InjectionsBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modchat_injections_blocked_total",
			Help: "Messages rejected by injection detection",
		},
		[]string{"reason"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modchat_validation_failures_total",
			Help: "Requests rejected by structural validation",
		},
		[]string{"code"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modchat_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	// Infrastructure metrics
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modchat_store_latency_seconds",
			Help:    "Conversation store operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"op"},
	)
)
