// internal/config/components.go
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/deskd/internal/embeddings"
	"github.com/fyrsmithlabs/deskd/internal/knowledge"
	"github.com/fyrsmithlabs/deskd/internal/llm"
)

// Component configuration conversions. The loaded file/env configuration is
// the single external shape; each component keeps its own config struct, and
// these methods bridge the two so the binaries stay thin.

// LLMClientConfig returns the llm.Config derived from this configuration.
func (c *Config) LLMClientConfig() llm.Config {
	return llm.Config{
		Provider:          c.LLM.Provider,
		Model:             c.LLM.Model,
		BaseURL:           c.LLM.BaseURL,
		APIKey:            c.LLM.APIKey.Value(),
		Temperature:       c.LLM.Temperature,
		MaxTokens:         c.LLM.MaxTokens,
		Timeout:           c.LLM.Timeout.Duration(),
		RequestsPerSecond: c.LLM.RequestsPerSecond,
		MaxRetries:        c.LLM.MaxRetries,
	}
}

// EmbeddingsProviderConfig returns the embeddings.ProviderConfig derived
// from this configuration. A leading ~ in the cache directory is expanded.
func (c *Config) EmbeddingsProviderConfig() (embeddings.ProviderConfig, error) {
	cacheDir, err := ExpandHome(c.Embeddings.CacheDir)
	if err != nil {
		return embeddings.ProviderConfig{}, fmt.Errorf("expanding embeddings cache_dir: %w", err)
	}
	return embeddings.ProviderConfig{
		Provider: c.Embeddings.Provider,
		Model:    c.Embeddings.Model,
		BaseURL:  c.Embeddings.BaseURL,
		CacheDir: cacheDir,
		Timeout:  c.Embeddings.Timeout.Duration(),
	}, nil
}

// KnowledgeStoreConfig returns the knowledge.Config derived from this
// configuration. A leading ~ in the chromem path is expanded.
func (c *Config) KnowledgeStoreConfig() (knowledge.Config, error) {
	path, err := ExpandHome(c.Knowledge.Chromem.Path)
	if err != nil {
		return knowledge.Config{}, fmt.Errorf("expanding knowledge chromem path: %w", err)
	}
	return knowledge.Config{
		Provider: c.Knowledge.Provider,
		Chromem: knowledge.ChromemConfig{
			Path:       path,
			Compress:   c.Knowledge.Chromem.Compress,
			Collection: c.Knowledge.Chromem.Collection,
			VectorSize: c.Knowledge.Chromem.VectorSize,
		},
		Qdrant: knowledge.QdrantConfig{
			Host:       c.Knowledge.Qdrant.Host,
			Port:       c.Knowledge.Qdrant.Port,
			Collection: c.Knowledge.Qdrant.Collection,
			VectorSize: uint64(c.Knowledge.Qdrant.VectorSize),
			APIKey:     c.Knowledge.Qdrant.APIKey.Value(),
			UseTLS:     c.Knowledge.Qdrant.UseTLS,
		},
	}, nil
}
