// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_queries_processed_total",
			Help: "Total number of queries answered, by handler",
		},
		[]string{"handler"},
	)

	QueriesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_queries_failed_total",
			Help: "Total number of stage-level failures absorbed by fallbacks",
		},
		[]string{"stage", "error_code"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "qa_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qa_cache_hits_total",
			Help: "Response cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qa_cache_misses_total",
			Help: "Response cache misses",
		},
	)

	// AttackAttempts counting is the alerting signal for the REJECT strategy.
	AttackAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qa_attack_attempts_total",
			Help: "Queries classified as prompt-injection attempts",
		},
	)
)
