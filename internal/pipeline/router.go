package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/department"
)

// Decision is the router's ordered department selection for one query.
// Empty means the model could not classify the query; the orchestrator
// treats that as a broadcast to every department.
type Decision []department.Label

// Router classifies queries against the department taxonomy with a single
// language model call.
type Router struct {
	model  LanguageModel
	logger *zap.Logger
}

// NewRouter creates a query router.
func NewRouter(model LanguageModel, logger *zap.Logger) (*Router, error) {
	if model == nil {
		return nil, errors.New("language model is required for router")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{model: model, logger: logger}, nil
}

// Route classifies the query and returns the departments it concerns.
//
// Exactly one model call is made. A reply that fails to parse as the
// expected JSON, or that names only unknown departments, yields an empty
// Decision and a nil error: ambiguity is a routing outcome, not a failure.
// Transport errors from the model are returned to the caller.
func (r *Router) Route(ctx context.Context, query string) (Decision, error) {
	ctx, span := tracer.Start(ctx, "Router.Route")
	defer span.End()

	reply, err := r.model.Complete(ctx, routerPrompt(query))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("classifying query: %w", err)
	}

	decision, err := parseDecision(reply)
	if err != nil {
		r.logger.Warn("routing reply did not parse, treating query as ambiguous",
			zap.Error(err),
			zap.Int("reply_length", len(reply)))
		return Decision{}, nil
	}

	span.SetAttributes(attribute.StringSlice("departments", department.Keys(decision)))
	return decision, nil
}

// parseDecision decodes the router's JSON reply into known departments.
//
// This is the only place a routing reply is interpreted. Unknown labels
// are dropped, duplicates keep their first position, and the model's order
// is preserved otherwise. Decode failures are reported to Route, which
// collapses them to an empty decision.
func parseDecision(reply string) (Decision, error) {
	var payload struct {
		Departments []string `json:"departments"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &payload); err != nil {
		return nil, fmt.Errorf("decoding routing reply: %w", err)
	}

	seen := make(map[department.Label]bool, len(payload.Departments))
	decision := make(Decision, 0, len(payload.Departments))
	for _, name := range payload.Departments {
		label, ok := department.Parse(name)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		decision = append(decision, label)
	}
	return decision, nil
}
