package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kierank/feedor/ratelimit"
)

// Metrics holds the server's Prometheus collectors, grounded on
// Tsuchiya2-catchup-feed-backend's handler metrics: request counts and
// durations by route and status, plus rate-limiter observability.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimitHits   prometheus.Counter
}

// NewMetrics registers the collectors against reg, including a gauge
// sampled from rl's live bucket count. Passing a fresh registry per
// Server (rather than prometheus.DefaultRegisterer) keeps repeated
// Server construction in tests from panicking on duplicate registration.
func NewMetrics(reg prometheus.Registerer, rl *ratelimit.Limiter) *Metrics {
	m := &Metrics{
		requestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "feedor_http_requests_total",
			Help: "Total HTTP requests by route and status class.",
		}, []string{"route", "status"}),
		requestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feedor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimitHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "feedor_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "feedor_rate_limit_tracked_keys",
		Help: "Distinct keys currently holding a live rate limiter bucket.",
	}, func() float64 { return float64(rl.TrackedKeys()) })
	return m
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
