package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BidsPlaced counts bid placements by outcome
	BidsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_bids_placed_total",
		Help: "Total number of bid placement attempts by outcome",
	}, []string{"outcome"})

	// BidsAccepted counts bid acceptances by outcome
	BidsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_bids_accepted_total",
		Help: "Total number of bid acceptance attempts by outcome",
	}, []string{"outcome"})

	// Purchases counts purchase attempts by outcome
	Purchases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_purchases_total",
		Help: "Total number of purchase attempts by outcome",
	}, []string{"outcome"})

	// ReconcileRepairs counts repairs made by the reconciler by kind
	ReconcileRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_reconcile_repairs_total",
		Help: "Total number of follow-up repairs made by reconciliation",
	}, []string{"kind"})

	// CacheLookups counts listing cache lookups by tier and result
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_listing_cache_lookups_total",
		Help: "Total number of listing cache lookups by tier and result",
	}, []string{"tier", "result"})

	// RedisErrors counts Redis errors by command
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// HTTPRequests counts HTTP requests by route and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPDuration records request latency by route
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketplace_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Outcome label values
const (
	OutcomeSuccess  = "success"
	OutcomeResumed  = "resumed"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// ObserveRequest records one finished HTTP request
func ObserveRequest(method, route, status string, started time.Time) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}
