package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentravel_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greentravel_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"route"},
	)

	// Recommendation metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentravel_recommendations_total",
			Help: "Total number of recommendations by best mode",
		},
		[]string{"mode"},
	)

	CO2SavedKG = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "greentravel_co2_saved_kg_total",
			Help: "Cumulative kg of CO2 saved against flying, across recommendations",
		},
	)

	// Distance provider metrics
	DistanceLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentravel_distance_lookups_total",
			Help: "Total number of distance lookups by provider and status",
		},
		[]string{"provider", "status"},
	)

	DistanceLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greentravel_distance_lookup_duration_seconds",
			Help:    "Distance lookup duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"provider"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentravel_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentravel_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Rate limiting metrics
	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentravel_rate_limit_exceeded_total",
			Help: "Total number of rejected requests by limit window",
		},
		[]string{"window"},
	)
)

// Status labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
