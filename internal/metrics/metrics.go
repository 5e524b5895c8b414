package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tw_http_requests_total",
			Help: "HTTP requests served, by endpoint and status code",
		},
		[]string{"endpoint", "code"},
	)

	ThreatsDetected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tw_threats_detected",
			Help: "Threats found by the most recent scan, by severity",
		},
		[]string{"severity"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tw_scan_duration_seconds",
			Help:    "Time spent in each scanner",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"scanner"},
	)

	SystemUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tw_system_usage_percent",
			Help: "Host resource usage sampled by the health check",
		},
		[]string{"resource"},
	)
)
