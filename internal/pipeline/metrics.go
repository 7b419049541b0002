package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/department"
)

const pipelineInstrumentationName = "github.com/fyrsmithlabs/deskd/internal/pipeline"

// Metrics holds pipeline metrics. Create one instance and share it between
// the service and the executor.
type Metrics struct {
	meter           metric.Meter
	logger          *zap.Logger
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	stageDuration   metric.Float64Histogram
	departments     metric.Int64Histogram
	emptyRetrievals metric.Int64Counter
}

// NewMetrics creates a new Metrics instance for the pipeline.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(pipelineInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.requests, err = m.meter.Int64Counter(
		"deskd.pipeline.requests_total",
		metric.WithDescription("Completed pipeline requests by outcome (ok, error) and fallback flag."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create requests counter", zap.Error(err))
	}

	m.requestDuration, err = m.meter.Float64Histogram(
		"deskd.pipeline.request_duration_seconds",
		metric.WithDescription("End-to-end pipeline duration in seconds, labeled by outcome."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		m.logger.Warn("failed to create request duration histogram", zap.Error(err))
	}

	m.stageDuration, err = m.meter.Float64Histogram(
		"deskd.pipeline.stage_duration_seconds",
		metric.WithDescription("Per-stage duration in seconds (route, execute, merge)."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		m.logger.Warn("failed to create stage duration histogram", zap.Error(err))
	}

	m.departments, err = m.meter.Int64Histogram(
		"deskd.pipeline.departments_per_request",
		metric.WithDescription("Departments consulted per answered request. Five on broadcast fallback."),
		metric.WithUnit("{department}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5),
	)
	if err != nil {
		m.logger.Warn("failed to create departments histogram", zap.Error(err))
	}

	m.emptyRetrievals, err = m.meter.Int64Counter(
		"deskd.pipeline.empty_retrievals_total",
		metric.WithDescription("Department retrievals that found no policy entries, by department. A rising count usually means the knowledge base is missing a section."),
		metric.WithUnit("{retrieval}"),
	)
	if err != nil {
		m.logger.Warn("failed to create empty retrievals counter", zap.Error(err))
	}
}

// RecordRequest records the outcome of one pipeline request. The department
// count is only recorded for answered requests; pass zero on failure.
func (m *Metrics) RecordRequest(ctx context.Context, outcome string, fallback bool, departments int, duration time.Duration) {
	if m.requests != nil {
		m.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.Bool("fallback", fallback),
		))
	}
	if m.requestDuration != nil {
		m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
	if departments > 0 && m.departments != nil {
		m.departments.Record(ctx, int64(departments))
	}
}

// RecordStage records one stage's duration.
func (m *Metrics) RecordStage(ctx context.Context, stage string, duration time.Duration) {
	if m.stageDuration != nil {
		m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("stage", stage),
		))
	}
}

// RecordEmptyRetrieval counts a department retrieval that found nothing.
func (m *Metrics) RecordEmptyRetrieval(ctx context.Context, dept department.Label) {
	if m.emptyRetrievals != nil {
		m.emptyRetrievals.Add(ctx, 1, metric.WithAttributes(
			attribute.String("department", dept.Key()),
		))
	}
}
