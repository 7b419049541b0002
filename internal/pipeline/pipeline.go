package pipeline

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"

	"github.com/fyrsmithlabs/deskd/internal/department"
	"github.com/fyrsmithlabs/deskd/internal/knowledge"
)

var tracer = otel.Tracer("deskd.pipeline")

// Sentinel errors for pipeline contract states.
var (
	// ErrEmptyQuery rejects empty or whitespace-only queries. The check
	// runs before any model or store call.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrNoAnswers is returned by Merge when called with nothing to merge.
	ErrNoAnswers = errors.New("no answers to merge")

	// ErrUpstream wraps language model and knowledge store failures so
	// transports can separate them from caller mistakes.
	ErrUpstream = errors.New("upstream failure")
)

// LanguageModel is the completion surface the pipeline stages share.
// llm.Client satisfies it.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// KnowledgeStore is the retrieval surface the executor needs.
// knowledge.Store satisfies it.
type KnowledgeStore interface {
	SearchDepartment(ctx context.Context, query string, k int, dept department.Label) ([]knowledge.SearchResult, error)
}
