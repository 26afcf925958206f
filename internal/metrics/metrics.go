// Package metrics provides Prometheus metrics for InnSight.
// It tracks review intake, sentiment analysis, and result application
// latencies to help identify pipeline bottlenecks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "innsight"
)

// Review metrics track the intake side of the pipeline.
var (
	// ReviewsPublishedTotal counts reviews accepted and published for analysis.
	ReviewsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_published_total",
			Help:      "Total number of review events published to the message queue",
		},
	)

	// ReviewPublishFailuresTotal counts reviews persisted but not published.
	// These stay pending until republished.
	ReviewPublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_publish_failures_total",
			Help:      "Total number of review events that failed to publish",
		},
	)

	// QueuePublishLatency measures time to publish a message to the queue.
	QueuePublishLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_publish_latency_seconds",
			Help:      "Time to publish a message to the queue in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)
)

// Analysis metrics track the sentiment workers.
var (
	// AnalysesTotal counts completed analyses, labeled by how the score
	// was derived.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of sentiment analyses performed",
		},
		[]string{"mode"}, // mode: text_and_rating, rating_only
	)

	// AnalysisLatency measures time to analyze a single review.
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_latency_seconds",
			Help:      "Time to analyze a single review in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Result metrics track the consumer applying analyses to storage.
var (
	// ResultsAppliedTotal counts analysis results applied to reviews.
	ResultsAppliedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_applied_total",
			Help:      "Total number of analysis results applied to storage",
		},
	)

	// ResultsApplyFailuresTotal counts results that could not be applied.
	ResultsApplyFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_apply_failures_total",
			Help:      "Total number of analysis results that failed to apply",
		},
	)
)

// Queue metrics track message redelivery health.
var (
	// QueueMessagesRequeued counts messages redelivered after a transient failure.
	QueueMessagesRequeued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_messages_requeued_total",
			Help:      "Total number of messages requeued for redelivery",
		},
		[]string{"queue"},
	)

	// QueueMessagesDeadLettered counts messages moved to a dead-letter queue.
	QueueMessagesDeadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_messages_dead_lettered_total",
			Help:      "Total number of messages moved to a dead-letter queue",
		},
		[]string{"queue"},
	)
)

// Cache metrics track the hotel stats read path.
var (
	// StatsCacheHits counts hotel stats served from cache.
	StatsCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_hits_total",
			Help:      "Total number of hotel stats requests served from cache",
		},
	)

	// StatsCacheMisses counts hotel stats computed from storage.
	StatsCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_misses_total",
			Help:      "Total number of hotel stats requests that missed the cache",
		},
	)
)
