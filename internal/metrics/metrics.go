package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fcyf_requests_total",
			Help: "Total number of /api/answer requests by response status",
		},
		[]string{"status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fcyf_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"route"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fcyf_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	FallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fcyf_fallbacks_total",
			Help: "Total number of times the reference fallback was consulted",
		},
	)

	RepairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fcyf_repairs_total",
			Help: "Total number of summarizer outputs that needed repair",
		},
		[]string{"reason"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fcyf_errors_total",
			Help: "Total number of pipeline errors by kind",
		},
		[]string{"kind"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fcyf_rate_limited_total",
			Help: "Total number of requests rejected by the per-client limiter",
		},
	)
)

// Repair reasons
const (
	RepairUnparsed   = "unparsed"
	RepairConfidence = "confidence"
	RepairSources    = "sources"
	RepairSpeak      = "speak"
)
