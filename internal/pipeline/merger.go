package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Merger combines department answers into the final reply.
type Merger struct {
	model  LanguageModel
	logger *zap.Logger
}

// NewMerger creates an answer merger.
func NewMerger(model LanguageModel, logger *zap.Logger) (*Merger, error) {
	if model == nil {
		return nil, errors.New("language model is required for merger")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{model: model, logger: logger}, nil
}

// Merge combines answers into one reply. Three cases never reach the model:
//
//   - no answers: ErrNoAnswers
//   - one answer: returned verbatim, byte for byte
//   - every answer is the unavailable sentinel: the sentinel itself
//
// Only genuinely mixed multi-department answers are synthesized by the
// model, and that reply is whitespace-trimmed.
func (m *Merger) Merge(ctx context.Context, answers []string) (string, error) {
	ctx, span := tracer.Start(ctx, "Merger.Merge")
	defer span.End()
	span.SetAttributes(attribute.Int("answers", len(answers)))

	switch {
	case len(answers) == 0:
		return "", ErrNoAnswers
	case len(answers) == 1:
		return answers[0], nil
	case allUnavailable(answers):
		m.logger.Debug("all departments answered with the unavailable sentinel")
		return UnavailableAnswer, nil
	}

	reply, err := m.model.Complete(ctx, mergePrompt(answers))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("merging %d answers: %w", len(answers), err)
	}
	return strings.TrimSpace(reply), nil
}

// allUnavailable reports whether every answer equals the unavailable
// sentinel, ignoring surrounding whitespace.
func allUnavailable(answers []string) bool {
	for _, a := range answers {
		if strings.TrimSpace(a) != UnavailableAnswer {
			return false
		}
	}
	return true
}
