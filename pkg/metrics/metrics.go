package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed cache

	// FeedCacheRequests counts page lookups by outcome: hit, miss or expired
	FeedCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_requests_total",
			Help: "Total number of feed page lookups by cache outcome",
		},
		[]string{"result"},
	)

	// FeedCacheInvalidations counts entries dropped after a rating change
	FeedCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_invalidations_total",
			Help: "Total number of feed cache invalidations",
		},
	)

	// FeedCacheDiscards counts fetched windows thrown away because the entry was invalidated mid-fetch
	FeedCacheDiscards = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_discarded_fetches_total",
			Help: "Total number of window fetches discarded after a concurrent invalidation",
		},
	)

	// FeedCacheEntries is the number of live cached feeds
	FeedCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_cache_entries",
			Help: "Number of cached feeds",
		},
	)

	// Window fetches

	// WindowFetchDuration tracks how long fetching and ranking one window takes
	WindowFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_window_fetch_duration_seconds",
			Help:    "Duration of fetching and ranking one feed window",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"source"},
	)

	// WindowFetchErrors counts failed window fetches
	WindowFetchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_window_fetch_errors_total",
			Help: "Total number of failed feed window fetches",
		},
	)

	// RerankDislikeApplied counts ranked windows by whether the dislike profile was applied
	RerankDislikeApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rerank_windows_total",
			Help: "Total number of reranked windows by dislike activation",
		},
		[]string{"dislike_applied"},
	)

	// Resilience

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts state changes
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// RateLimitRejections counts requests rejected by the rate limiter
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limit_rejections_total",
			Help: "Total number of requests rejected by rate limiting",
		},
	)
)
