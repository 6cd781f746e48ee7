// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectionRunsTotal tracks duplicate detection runs by outcome
	DetectionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "detection",
			Name:      "runs_total",
			Help:      "Total number of duplicate detection runs by status",
		},
		[]string{"org_id", "status"},
	)

	// DetectionDuration tracks detection run duration in seconds
	DetectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "detection",
			Name:      "run_duration_seconds",
			Help:      "Duration of duplicate detection runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"org_id"},
	)

	// DuplicateFlagsTotal tracks duplicate flags emitted by match type
	DuplicateFlagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "detection",
			Name:      "duplicate_flags_total",
			Help:      "Total number of duplicate flags emitted by match type",
		},
		[]string{"org_id", "match_type"},
	)

	// DuplicateConfidence tracks the confidence distribution of emitted flags
	DuplicateConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "detection",
			Name:      "confidence_score",
			Help:      "Confidence score distribution of duplicate flags",
			Buckets:   []float64{0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 0.98, 1},
		},
	)

	// ImportBatchesTotal tracks statement import batches by status
	ImportBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Total number of statement import batches by status",
		},
		[]string{"org_id", "status"},
	)

	// ImportedTransactionsTotal tracks transactions imported by disposition
	ImportedTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "ingest",
			Name:      "transactions_total",
			Help:      "Total number of imported transactions by disposition",
		},
		[]string{"org_id", "disposition"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish duration
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// RecordDetectionRun records a detection run metric
func RecordDetectionRun(orgID, status string, durationSeconds float64) {
	DetectionRunsTotal.WithLabelValues(orgID, status).Inc()
	DetectionDuration.WithLabelValues(orgID).Observe(durationSeconds)
}

// RecordDuplicateFlag records an emitted duplicate flag
func RecordDuplicateFlag(orgID, matchType string, confidence float64) {
	DuplicateFlagsTotal.WithLabelValues(orgID, matchType).Inc()
	DuplicateConfidence.Observe(confidence)
}

// RecordImportBatch records a completed import batch
func RecordImportBatch(orgID, status string) {
	ImportBatchesTotal.WithLabelValues(orgID, status).Inc()
}

// RecordImportedTransaction records an imported transaction disposition
func RecordImportedTransaction(orgID, disposition string) {
	ImportedTransactionsTotal.WithLabelValues(orgID, disposition).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.Observe(durationSeconds)
}
