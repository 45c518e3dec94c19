package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for AssetDeletions.
const (
	OutcomeDeleted = "deleted"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	AssetDeletions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "asset_deletions_total",
		Help: "Assets submitted for deletion, by operation and outcome.",
	}, []string{"operation", "outcome"})

	CloudinaryRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cloudinary_request_duration_seconds",
		Help:    "Latency of calls to the Cloudinary REST API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "result"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests handled, by method, route and status.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Register adds every collector to reg (the default registerer when nil).
// Collectors that are already registered are skipped.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{AssetDeletions, CloudinaryRequestDuration, HTTPRequests, HTTPRequestDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCloudinary records one call to endpoint that started at start.
func ObserveCloudinary(endpoint string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CloudinaryRequestDuration.WithLabelValues(endpoint, result).Observe(time.Since(start).Seconds())
}
