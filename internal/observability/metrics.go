package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

var (
	// BuildsTotal counts CMS builds by result kind.
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gkcms_builds_total",
			Help: "Total number of CMS builds by result",
		},
		[]string{"result"},
	)

	// BuildDuration tracks end-to-end build duration in seconds.
	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gkcms_build_duration_seconds",
			Help:    "CMS build duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"result"},
	)

	// RemoteRequestsTotal counts GoodKey API requests.
	RemoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gkcms_remote_requests_total",
			Help: "Total number of GoodKey API requests by method and status",
		},
		[]string{"method", "status_code"},
	)

	// RemoteRequestDuration tracks GoodKey API latency in seconds.
	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gkcms_remote_request_duration_seconds",
			Help:    "GoodKey API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"method"},
	)

	// HTTPRequestsTotal counts requests served by the front door.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gkcms_http_requests_total",
			Help: "Total number of HTTP requests served by method, route and status",
		},
		[]string{"method", "route", "status_code"},
	)
)

// MetricsHandler returns the Prometheus scrape handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// GetCounterValue reads the current value of a labelled counter.
// It is meant for tests.
func GetCounterValue(counter *prometheus.CounterVec, labels ...string) (float64, error) {
	metric, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}
	if pb.Counter != nil {
		return pb.Counter.GetValue(), nil
	}
	return 0, nil
}
