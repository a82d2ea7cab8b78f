// Package metrics provides Prometheus metrics for the Fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportsTotal tracks import operations by kind and status
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "ingestion",
			Name:      "imports_total",
			Help:      "Total number of import operations by kind and status",
		},
		[]string{"tenant_id", "kind", "status"},
	)

	// ImportDuration tracks import duration in seconds
	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "ingestion",
			Name:      "import_duration_seconds",
			Help:      "Duration of import operations in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"tenant_id", "kind"},
	)

	// ManufacturersCreated tracks manufacturers minted during imports
	ManufacturersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "ingestion",
			Name:      "manufacturers_created_total",
			Help:      "Total number of manufacturers created as an import side effect",
		},
		[]string{"tenant_id"},
	)

	// ComplianceEvaluationsTotal tracks requirement evaluations by status
	ComplianceEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "compliance",
			Name:      "evaluations_total",
			Help:      "Total number of requirement evaluations by status",
		},
		[]string{"tenant_id", "status"},
	)

	// KafkaMessagesProcessed tracks consumed import messages
	KafkaMessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_processed_total",
			Help:      "Total number of Kafka import messages processed",
		},
		[]string{"status"},
	)

	// KafkaMessagesPublished tracks published event messages
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

// RecordImport records one import operation
func RecordImport(tenantID, kind, status string, durationSeconds float64) {
	ImportsTotal.WithLabelValues(tenantID, kind, status).Inc()
	ImportDuration.WithLabelValues(tenantID, kind).Observe(durationSeconds)
}

// RecordManufacturerCreated records a manufacturer minted during an import
func RecordManufacturerCreated(tenantID string) {
	ManufacturersCreated.WithLabelValues(tenantID).Inc()
}

// RecordComplianceEvaluation records one requirement evaluation
func RecordComplianceEvaluation(tenantID, status string) {
	ComplianceEvaluationsTotal.WithLabelValues(tenantID, status).Inc()
}

// RecordKafkaMessage records one consumed message
func RecordKafkaMessage(status string) {
	KafkaMessagesProcessed.WithLabelValues(status).Inc()
}

// RecordKafkaPublish records one published message
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
