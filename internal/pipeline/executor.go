package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/department"
)

const (
	// defaultTopK is how many policy entries each department retrieves.
	defaultTopK = 4

	// defaultMaxParallel bounds concurrent department executions. Five
	// covers a full broadcast without queueing.
	defaultMaxParallel = 5
)

// Answer is one department's grounded reply.
type Answer struct {
	// Department that produced the answer.
	Department department.Label

	// Text is the model's reply, whitespace-trimmed, or UnavailableAnswer
	// when retrieval found nothing.
	Text string

	// Retrieved counts the policy entries that grounded the answer.
	Retrieved int
}

// ExecutorConfig tunes department execution. Zero fields use defaults.
type ExecutorConfig struct {
	// TopK is the number of policy entries retrieved per department.
	TopK int

	// MaxParallel bounds concurrent department executions.
	MaxParallel int
}

// Executor produces a grounded answer for each routed department.
type Executor struct {
	store       KnowledgeStore
	model       LanguageModel
	topK        int
	maxParallel int
	metrics     *Metrics
	logger      *zap.Logger
}

// NewExecutor creates a department executor.
func NewExecutor(store KnowledgeStore, model LanguageModel, cfg ExecutorConfig, logger *zap.Logger) (*Executor, error) {
	if store == nil {
		return nil, errors.New("knowledge store is required for executor")
	}
	if model == nil {
		return nil, errors.New("language model is required for executor")
	}
	if cfg.TopK == 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.MaxParallel == 0 {
		cfg.MaxParallel = defaultMaxParallel
	}
	if cfg.TopK < 0 {
		return nil, fmt.Errorf("top k must be positive, got %d", cfg.TopK)
	}
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be positive, got %d", cfg.MaxParallel)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		store:       store,
		model:       model,
		topK:        cfg.TopK,
		maxParallel: cfg.MaxParallel,
		logger:      logger,
	}, nil
}

// SetMetrics sets the metrics tracker for this executor. Optional; call
// after creation if metrics are desired.
func (e *Executor) SetMetrics(m *Metrics) {
	e.metrics = m
}

// Execute produces one grounded answer per department.
//
// Departments run concurrently, bounded by MaxParallel, but the returned
// slice always follows the input department order regardless of completion
// order. Any department failure fails the whole call; partial answer sets
// are never returned.
func (e *Executor) Execute(ctx context.Context, query string, departments []department.Label) ([]Answer, error) {
	ctx, span := tracer.Start(ctx, "Executor.Execute")
	defer span.End()
	span.SetAttributes(attribute.Int("departments", len(departments)))

	if len(departments) == 0 {
		return nil, nil
	}

	limit := e.maxParallel
	if len(departments) < limit {
		limit = len(departments)
	}

	answers := make([]Answer, len(departments))
	errs := make([]error, len(departments))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, dept := range departments {
		wg.Add(1)
		go func(i int, dept department.Label) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}

			answer, err := e.executeOne(ctx, query, dept)
			if err != nil {
				errs[i] = err
				return
			}
			answers[i] = answer
		}(i, dept)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("department %s: %w", departments[i], err)
		}
	}
	return answers, nil
}

// executeOne retrieves one department's policy context and answers from it.
// A department whose retrieval comes back empty answers with the
// unavailable sentinel and never reaches the model.
func (e *Executor) executeOne(ctx context.Context, query string, dept department.Label) (Answer, error) {
	ctx, span := tracer.Start(ctx, "Executor.ExecuteDepartment")
	defer span.End()
	span.SetAttributes(attribute.String("department", dept.Key()))

	results, err := e.store.SearchDepartment(ctx, query, e.topK, dept)
	if err != nil {
		span.RecordError(err)
		return Answer{}, fmt.Errorf("retrieving policy context: %w", err)
	}
	span.SetAttributes(attribute.Int("retrieved", len(results)))

	if len(results) == 0 {
		if e.metrics != nil {
			e.metrics.RecordEmptyRetrieval(ctx, dept)
		}
		e.logger.Debug("no policy entries for department",
			zap.String("department", dept.Key()))
		return Answer{Department: dept, Text: UnavailableAnswer}, nil
	}

	contexts := make([]string, len(results))
	for i, r := range results {
		contexts[i] = r.Text
	}

	reply, err := e.model.Complete(ctx, departmentPrompt(dept, strings.Join(contexts, "\n\n"), query))
	if err != nil {
		span.RecordError(err)
		return Answer{}, fmt.Errorf("generating answer: %w", err)
	}

	return Answer{
		Department: dept,
		Text:       strings.TrimSpace(reply),
		Retrieved:  len(results),
	}, nil
}
