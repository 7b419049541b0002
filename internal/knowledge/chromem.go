// Package knowledge provides knowledge base implementations.
package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/department"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("deskd.knowledge.chromem")

// ChromemConfig holds configuration for the chromem-go embedded knowledge base.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Default: "~/.config/deskd/knowledge"
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection is the collection holding policy entries.
	// Default: "company_policies"
	Collection string

	// VectorSize is the expected embedding dimension.
	// Must match the embedder's output dimension.
	// Default: 384 (for bge-small-en-v1.5)
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.config/deskd/knowledge"
	}
	if c.Collection == "" {
		c.Collection = "company_policies"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 384
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements the Store interface using chromem-go.
//
// chromem-go is an embeddable vector database with zero third-party
// dependencies: pure Go, no external database service, automatic persistence
// to gob files. All entries live in a single collection with the department
// kept in document metadata, so department scoping is a metadata filter.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
	config     ChromemConfig
	logger     *zap.Logger
}

// NewChromemStore creates a new ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	expandedPath, err := expandChromemPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}

	if err := os.MkdirAll(expandedPath, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", expandedPath, err)
	}

	db, err := chromem.NewPersistentDB(expandedPath, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	store := &ChromemStore{
		db:       db,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}

	// Single-collection store: create the collection eagerly so search and
	// count behave uniformly on a fresh data dir.
	// IMPORTANT: Must pass the embedding function, not nil, because chromem-go
	// sets the default OpenAI embedder when nil is passed for persisted collections.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, store.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", config.Collection, err)
	}
	store.collection = collection

	logger.Info("chromem knowledge store initialized",
		zap.String("path", expandedPath),
		zap.Bool("compress", config.Compress),
		zap.Int("vector_size", config.VectorSize),
		zap.String("collection", config.Collection),
		zap.Int("entries", collection.Count()),
	)

	return store, nil
}

// expandChromemPath expands ~ to home directory.
func expandChromemPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// embeddingFunc adapts our Embedder interface to chromem.EmbeddingFunc.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// AddEntries adds policy entries to the knowledge base.
func (s *ChromemStore) AddEntries(ctx context.Context, entries []Entry) ([]string, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.AddEntries")
	defer span.End()

	span.SetAttributes(
		attribute.Int("entry_count", len(entries)),
		attribute.String("collection", s.config.Collection),
	)

	if len(entries) == 0 {
		return nil, ErrEmptyEntries
	}

	ids := make([]string, len(entries))
	texts := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
		if ids[i] == "" {
			ids[i] = uuid.NewString()
		}
		texts[i] = entry.Text
	}

	// Generate embeddings in batch
	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	docs := make([]chromem.Document, len(entries))
	for i, entry := range entries {
		docs[i] = chromem.Document{
			ID:      ids[i],
			Content: entry.Text,
			Metadata: map[string]string{
				metadataDepartmentKey: entry.Department.Key(),
			},
			Embedding: embeddings[i],
		}
	}

	// Add documents (concurrency of 1 since we already have embeddings)
	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("adding entries: %w", err)
	}

	span.SetAttributes(attribute.Int("entries_added", len(ids)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("added entries to chromem",
		zap.String("collection", s.config.Collection),
		zap.Int("count", len(entries)),
	)

	return ids, nil
}

// Search performs similarity search across all departments.
func (s *ChromemStore) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	return s.search(ctx, query, k, nil)
}

// SearchDepartment performs similarity search restricted to one department.
func (s *ChromemStore) SearchDepartment(ctx context.Context, query string, k int, dept department.Label) ([]SearchResult, error) {
	return s.search(ctx, query, k, map[string]string{
		metadataDepartmentKey: dept.Key(),
	})
}

func (s *ChromemStore) search(ctx context.Context, query string, k int, where map[string]string) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Search")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", s.config.Collection),
		attribute.Int("k", k),
		attribute.Int("query_length", len(query)),
	)
	if dept, ok := where[metadataDepartmentKey]; ok {
		span.SetAttributes(attribute.String("department", dept))
	}

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	// Cap k at collection size (chromem requires nResults <= doc count)
	docCount := s.collection.Count()
	if docCount == 0 {
		span.SetStatus(codes.Ok, "empty collection")
		return []SearchResult{}, nil
	}
	if k > docCount {
		k = docCount
	}

	results, err := s.collection.Query(ctx, query, k, where, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		dept, _ := department.Parse(r.Metadata[metadataDepartmentKey])
		searchResults[i] = SearchResult{
			Entry: Entry{
				ID:         r.ID,
				Text:       r.Content,
				Department: dept,
			},
			Score: r.Similarity,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("searched chromem collection",
		zap.String("collection", s.config.Collection),
		zap.Int("k", k),
		zap.Int("results", len(searchResults)),
	)

	return searchResults, nil
}

// Count returns the number of entries in the knowledge base.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	_, span := chromemTracer.Start(ctx, "ChromemStore.Count")
	defer span.End()

	count := s.collection.Count()
	span.SetAttributes(attribute.Int("entries", count))
	span.SetStatus(codes.Ok, "success")
	return count, nil
}

// Close closes the ChromemStore.
// Note: chromem-go persists automatically, no explicit close needed.
func (s *ChromemStore) Close() error {
	s.logger.Info("chromem knowledge store closed")
	return nil
}

// Ensure ChromemStore implements Store interface.
var _ Store = (*ChromemStore)(nil)
