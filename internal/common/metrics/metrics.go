package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_pipeline_requests_total",
			Help: "Total number of queries handled by the pipeline",
		},
		[]string{"routing_class", "outcome"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "concierge_pipeline_stage_duration_seconds",
			Help: "Duration of individual pipeline stages in seconds",
		},
		[]string{"stage"},
	)

	ValidationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_validation_outcomes_total",
			Help: "Validator outcomes per state",
		},
		[]string{"state"},
	)

	ValidationViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_validation_violations_total",
			Help: "Guardrail violations detected, by kind",
		},
		[]string{"kind"},
	)

	AuditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "concierge_audit_write_failures_total",
			Help: "Audit records dropped because the sink write failed or overflowed",
		},
	)

	CatalogCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_catalog_cache_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"result"},
	)
)
