package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/department"
)

// Stage names used in metrics and logs.
const (
	stageRoute   = "route"
	stageExecute = "execute"
	stageMerge   = "merge"
)

// Result is the outcome of one pipeline run.
type Result struct {
	// Query is the trimmed query that was answered.
	Query string

	// Departments the query was executed against, in pipeline order.
	Departments []department.Label

	// Fallback is true when routing was ambiguous and every department
	// was consulted.
	Fallback bool

	// Answer is the final merged reply. Empty for RouteOnly.
	Answer string
}

// Service runs the full pipeline: route, execute, merge.
type Service struct {
	router   *Router
	executor *Executor
	merger   *Merger
	metrics  *Metrics
	logger   *zap.Logger
}

// NewService wires the pipeline stages together.
func NewService(router *Router, executor *Executor, merger *Merger, logger *zap.Logger) (*Service, error) {
	if router == nil {
		return nil, errors.New("router is required for pipeline service")
	}
	if executor == nil {
		return nil, errors.New("executor is required for pipeline service")
	}
	if merger == nil {
		return nil, errors.New("merger is required for pipeline service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		router:   router,
		executor: executor,
		merger:   merger,
		logger:   logger,
	}, nil
}

// SetMetrics sets the metrics tracker for this service. Optional; call
// after creation if metrics are desired.
func (s *Service) SetMetrics(m *Metrics) {
	s.metrics = m
}

// Ask answers a query end to end.
//
// The query is routed to departments, each department produces a grounded
// answer concurrently, and the answers are merged into one reply. An
// ambiguous routing decision broadcasts to every department and marks the
// result as fallback. A failure in any stage aborts the whole request with
// an ErrUpstream-wrapped error.
func (s *Service) Ask(ctx context.Context, query string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Service.Ask")
	defer span.End()
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	routeStart := time.Now()
	decision, err := s.router.Route(ctx, query)
	s.recordStage(ctx, stageRoute, routeStart)
	if err != nil {
		return nil, s.fail(ctx, span, start, stageRoute, err)
	}

	departments := []department.Label(decision)
	fallback := len(departments) == 0
	if fallback {
		departments = department.All()
		s.logger.Info("routing ambiguous, consulting all departments")
	}
	span.SetAttributes(
		attribute.StringSlice("departments", department.Keys(departments)),
		attribute.Bool("fallback", fallback),
	)

	execStart := time.Now()
	answers, err := s.executor.Execute(ctx, query, departments)
	s.recordStage(ctx, stageExecute, execStart)
	if err != nil {
		return nil, s.fail(ctx, span, start, stageExecute, err)
	}

	texts := make([]string, len(answers))
	for i, a := range answers {
		texts[i] = a.Text
	}

	mergeStart := time.Now()
	answer, err := s.merger.Merge(ctx, texts)
	s.recordStage(ctx, stageMerge, mergeStart)
	if err != nil {
		return nil, s.fail(ctx, span, start, stageMerge, err)
	}

	if s.metrics != nil {
		s.metrics.RecordRequest(ctx, "ok", fallback, len(departments), time.Since(start))
	}
	s.logger.Info("query answered",
		zap.Strings("departments", department.Keys(departments)),
		zap.Bool("fallback", fallback),
		zap.Duration("duration", time.Since(start)))

	return &Result{
		Query:       query,
		Departments: departments,
		Fallback:    fallback,
		Answer:      answer,
	}, nil
}

// RouteOnly classifies a query without executing or merging.
//
// An ambiguous decision reports the full broadcast set with Fallback set,
// mirroring what Ask would execute, but no department work happens.
func (s *Service) RouteOnly(ctx context.Context, query string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Service.RouteOnly")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	decision, err := s.router.Route(ctx, query)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrUpstream, err)
		span.RecordError(wrapped)
		return nil, wrapped
	}

	departments := []department.Label(decision)
	fallback := len(departments) == 0
	if fallback {
		departments = department.All()
	}
	span.SetAttributes(
		attribute.StringSlice("departments", department.Keys(departments)),
		attribute.Bool("fallback", fallback),
	)

	return &Result{
		Query:       query,
		Departments: departments,
		Fallback:    fallback,
	}, nil
}

// fail wraps a stage error, records it, and returns the wrapped form.
func (s *Service) fail(ctx context.Context, span trace.Span, start time.Time, stage string, err error) error {
	wrapped := fmt.Errorf("%w: %w", ErrUpstream, err)
	span.RecordError(wrapped)
	if s.metrics != nil {
		s.metrics.RecordRequest(ctx, "error", false, 0, time.Since(start))
	}
	s.logger.Error("query failed",
		zap.String("stage", stage),
		zap.Error(err))
	return wrapped
}

func (s *Service) recordStage(ctx context.Context, stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStage(ctx, stage, time.Since(start))
	}
}
