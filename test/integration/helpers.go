package integration

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/knowledge"
	"github.com/fyrsmithlabs/deskd/internal/pipeline"
)

// testVectorSize keeps test embeddings small. Retrieval in the pipeline is
// department-scoped, so ranking quality does not matter here, only that
// vectors are stable across runs.
const testVectorSize = 16

// hashEmbedder derives embeddings from byte counts. Deterministic and
// offline, so integration tests run without a model download or an
// embedding service.
type hashEmbedder struct{}

func (hashEmbedder) embed(text string) []float32 {
	vec := make([]float32, testVectorSize)
	for i := 0; i < len(text); i++ {
		vec[int(text[i])%testVectorSize]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		vec[0] = 1
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func (h hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = h.embed(text)
	}
	return vecs, nil
}

func (h hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}

// scriptedModel is a deterministic LanguageModel covering the three pipeline
// prompts. Routing is keyword-based, department answers echo the retrieved
// policy context, and merges join the department responses, so tests can
// trace handbook content end to end.
type scriptedModel struct{}

func (scriptedModel) Complete(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.HasPrefix(prompt, "You are an internal routing system"):
		return routeByKeyword(promptSection(prompt, "User Query:\n", "")), nil
	case strings.HasPrefix(prompt, "You are the "):
		return promptSection(prompt, "Company Policy Information:\n", "\n\nUser Query:"), nil
	case strings.HasPrefix(prompt, "You are a senior manager"):
		return "Combined: " + promptSection(prompt, "Responses:\n", ""), nil
	}
	return "", fmt.Errorf("unexpected prompt: %.60q", prompt)
}

func routeByKeyword(query string) string {
	query = strings.ToLower(query)
	switch {
	case strings.Contains(query, "invoice"):
		return `{"departments": ["Finance"]}`
	case strings.Contains(query, "leave"):
		return `{"departments": ["HR"]}`
	case strings.Contains(query, "password"):
		return `{"departments": ["Support", "Engineering"]}`
	default:
		return `{"departments": []}`
	}
}

// promptSection returns the text between the last occurrence of start and
// the following end marker. An empty end means the rest of the prompt.
func promptSection(prompt, start, end string) string {
	i := strings.LastIndex(prompt, start)
	if i < 0 {
		return ""
	}
	prompt = prompt[i+len(start):]
	if end == "" {
		return prompt
	}
	if j := strings.Index(prompt, end); j >= 0 {
		prompt = prompt[:j]
	}
	return prompt
}

// countingModel wraps a LanguageModel and records completion calls. The
// executor answers departments in parallel, hence the lock.
type countingModel struct {
	inner pipeline.LanguageModel

	mu    sync.Mutex
	calls int
}

func (c *countingModel) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Complete(ctx, prompt)
}

func (c *countingModel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// createTestKnowledgeStore creates a test knowledge store and returns a
// cleanup function. Uses chromem (embedded) by default for integration tests.
func createTestKnowledgeStore(t *testing.T) (knowledge.Store, func()) {
	tmpDir := t.TempDir()

	config := knowledge.ChromemConfig{
		Path:       tmpDir,
		Collection: "test_policies",
		VectorSize: testVectorSize,
	}

	store, err := knowledge.NewChromemStore(config, hashEmbedder{}, zap.NewNop())
	require.NoError(t, err, "Should create test knowledge store")

	cleanup := func() {
		if store != nil {
			store.Close()
		}
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

// createTestQdrantStore creates a test Qdrant store (requires Qdrant container).
// Only use in containerized tests where Qdrant is available.
func createTestQdrantStore(t *testing.T) (knowledge.Store, func()) {
	host := os.Getenv("QDRANT_HOST")
	if host == "" {
		host = "localhost"
	}

	portStr := os.Getenv("QDRANT_PORT")
	if portStr == "" {
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err, "Should parse QDRANT_PORT as integer")

	config := knowledge.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: "test_policies",
		VectorSize: testVectorSize,
	}

	store, err := knowledge.NewQdrantStore(config, hashEmbedder{}, zap.NewNop())
	require.NoError(t, err, "Should create test Qdrant store")

	cleanup := func() {
		if store != nil {
			store.Close()
		}
	}

	return store, cleanup
}

// getTestStoreProvider returns the knowledge store for integration tests.
// Checks the KNOWLEDGE_PROVIDER environment variable:
// - "qdrant" = Use Qdrant (requires container)
// - "chromem" or empty = Use chromem (default)
func getTestStoreProvider(t *testing.T) (knowledge.Store, func()) {
	provider := os.Getenv("KNOWLEDGE_PROVIDER")
	if provider == "" {
		provider = "chromem"
	}

	switch provider {
	case "qdrant":
		return createTestQdrantStore(t)
	case "chromem":
		return createTestKnowledgeStore(t)
	default:
		t.Fatalf("Unknown knowledge store provider: %s", provider)
		return nil, nil
	}
}
