// Package knowledge defines the interface for the company knowledge base.
package knowledge

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/deskd/internal/department"
)

// Sentinel errors for knowledge store operations.
var (
	// ErrCollectionNotFound is returned when the backing collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyEntries indicates empty or nil entries.
	ErrEmptyEntries = errors.New("empty or nil entries")

	// ErrConnectionFailed indicates gRPC connection issues.
	ErrConnectionFailed = errors.New("failed to connect to Qdrant")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")
)

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic meaning,
// enabling similarity search. Implementations can use local models (FastEmbed)
// or services (TEI, Ollama).
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns a slice of embeddings (one per input text) or an error.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for the company policy knowledge base.
//
// The knowledge base holds policy sections tagged with the department that
// owns them. Department answering retrieves only the entries tagged with its
// own department, so SearchDepartment is the hot path.
//
// Implementations:
//   - ChromemStore: Embedded chromem-go (default)
//   - QdrantStore: External Qdrant gRPC client
type Store interface {
	// AddEntries adds policy entries to the knowledge base.
	//
	// Entries are embedded and stored with their department in metadata.
	// Entries without an ID are assigned a generated one.
	//
	// Returns the IDs of added entries and an error if the operation fails.
	AddEntries(ctx context.Context, entries []Entry) ([]string, error)

	// Search performs similarity search across all departments.
	//
	// Returns up to k results ordered by similarity score (highest first).
	// K larger than the corpus returns what exists; an empty corpus returns
	// an empty slice, not an error.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// SearchDepartment performs similarity search restricted to one department.
	//
	// Only entries tagged with dept are considered. Returns up to k results
	// ordered by similarity score; an empty slice (not an error) when the
	// department has no matching entries.
	SearchDepartment(ctx context.Context, query string, k int, dept department.Label) ([]SearchResult, error)

	// Count returns the number of entries in the knowledge base.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases resources.
	Close() error
}
